package migrate

// Migration is one forward-only schema step.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// All lists every migration in apply order.
var All = []Migration{
	{Version: 1, Name: "users", SQL: `
CREATE TABLE IF NOT EXISTS users (
    id            BIGSERIAL PRIMARY KEY,
    email         TEXT NOT NULL,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    bucket_name   TEXT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT users_email_key UNIQUE (email),
    CONSTRAINT users_username_key UNIQUE (username),
    CONSTRAINT users_bucket_name_key UNIQUE (bucket_name)
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
    user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    token_hash TEXT NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    revoked_at TIMESTAMPTZ NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, token_hash)
);

CREATE INDEX IF NOT EXISTS refresh_tokens_hash_idx ON refresh_tokens (token_hash);`},

	{Version: 2, Name: "billing", SQL: `
CREATE TABLE IF NOT EXISTS subscription_plans (
    id               BIGSERIAL PRIMARY KEY,
    name             TEXT NOT NULL UNIQUE,
    price_cents      BIGINT NOT NULL DEFAULT 0,
    storage_limit_mb BIGINT NOT NULL,
    features         TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS subscriptions (
    id                     BIGSERIAL PRIMARY KEY,
    user_id                BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
    plan_id                BIGINT NOT NULL REFERENCES subscription_plans(id),
    is_active              BOOLEAN NOT NULL DEFAULT TRUE,
    start_date             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    end_date               TIMESTAMPTZ NULL,
    stripe_subscription_id TEXT NULL
);

CREATE INDEX IF NOT EXISTS subscriptions_stripe_idx ON subscriptions (stripe_subscription_id);

CREATE TABLE IF NOT EXISTS payments (
    id             BIGSERIAL PRIMARY KEY,
    stripe_session TEXT NOT NULL UNIQUE,
    user_id        BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    amount_cents   BIGINT NOT NULL,
    status         TEXT NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

INSERT INTO subscription_plans (name, price_cents, storage_limit_mb, features) VALUES
    ('Free', 0, 1024, ARRAY['1 GB storage', 'Public catalog']),
    ('Pro', 999, 10240, ARRAY['10 GB storage', 'Priority uploads']),
    ('Enterprise', 2999, 102400, ARRAY['100 GB storage', 'Priority support'])
ON CONFLICT (name) DO NOTHING;`},

	{Version: 3, Name: "devices", SQL: `
CREATE TABLE IF NOT EXISTS device_models (
    id   BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS devices (
    id            BIGSERIAL PRIMARY KEY,
    serial_number TEXT NOT NULL UNIQUE,
    model_id      BIGINT NOT NULL REFERENCES device_models(id),
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS user_devices (
    user_id   BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    device_id BIGINT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
    paired_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, device_id)
);`},

	{Version: 4, Name: "presign_audit", SQL: `
CREATE TABLE IF NOT EXISTS presign_audit (
    id          BIGSERIAL PRIMARY KEY,
    user_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    bucket_name TEXT NOT NULL,
    object_key  TEXT NOT NULL,
    method      TEXT NOT NULL,
    expires_at  TIMESTAMPTZ NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS presign_audit_user_idx ON presign_audit (user_id, created_at DESC);`},
}
