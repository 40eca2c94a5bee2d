package bucket

import (
	"context"
	"errors"
	"testing"

	"github.com/abduss/modelvault/internal/objectstore"
	"github.com/abduss/modelvault/internal/objectstore/objectstoretest"
)

func TestResolveCreatesAndPersistsOnce(t *testing.T) {
	users := newFakeUsers(Owner{UserID: 7, Username: "Jane Doe"})
	fake := objectstoretest.New()
	resolver := NewResolver(users, objectstore.New(fake, objectstore.Config{}))

	first, err := resolver.Resolve(context.Background(), 7)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if first != "jane-doe-7" {
		t.Fatalf("expected jane-doe-7, got %s", first)
	}

	second, err := resolver.Resolve(context.Background(), 7)
	if err != nil {
		t.Fatalf("second Resolve returned error: %v", err)
	}
	if second != first {
		t.Fatalf("bucket name changed between calls: %s -> %s", first, second)
	}
	if users.assignCalls != 1 {
		t.Fatalf("expected a single persisted assignment, got %d", users.assignCalls)
	}
	if fake.Calls("MakeBucket") != 1 {
		t.Fatalf("expected bucket to be created once, got %d", fake.Calls("MakeBucket"))
	}
}

func TestResolveKeepsBucketAfterUsernameChange(t *testing.T) {
	users := newFakeUsers(Owner{UserID: 3, Username: "old", Bucket: Assigned("old-3")})
	resolver := NewResolver(users, objectstore.New(objectstoretest.New(), objectstore.Config{}))

	users.owners[3] = Owner{UserID: 3, Username: "brand-new", Bucket: Assigned("old-3")}

	name, err := resolver.Resolve(context.Background(), 3)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if name != "old-3" {
		t.Fatalf("expected stable bucket old-3, got %s", name)
	}
}

func TestResolveAdoptsConcurrentAssignment(t *testing.T) {
	users := newFakeUsers(Owner{UserID: 4, Username: "bob"})
	users.raceWith = "bob-renamed-4"
	fake := objectstoretest.New()
	resolver := NewResolver(users, objectstore.New(fake, objectstore.Config{}))

	name, err := resolver.Resolve(context.Background(), 4)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if name != "bob-renamed-4" {
		t.Fatalf("expected previously stored name, got %s", name)
	}
	if fake.Calls("MakeBucket") != 2 {
		t.Fatalf("expected both candidate and stored bucket to be ensured, got %d", fake.Calls("MakeBucket"))
	}
}

func TestLookupDoesNotCreate(t *testing.T) {
	users := newFakeUsers(Owner{UserID: 5, Username: "carol"})
	fake := objectstoretest.New()
	resolver := NewResolver(users, objectstore.New(fake, objectstore.Config{}))

	assignment, err := resolver.Lookup(context.Background(), 5)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if assignment.IsAssigned() {
		t.Fatalf("expected unassigned bucket")
	}
	if fake.Calls("MakeBucket") != 0 {
		t.Fatalf("Lookup must not create buckets")
	}
}

func TestOwns(t *testing.T) {
	users := newFakeUsers(Owner{UserID: 8, Username: "dan", Bucket: Assigned("dan-8")})
	resolver := NewResolver(users, objectstore.New(objectstoretest.New(), objectstore.Config{}))

	if ok, err := resolver.Owns(context.Background(), 8, "dan-8"); err != nil || !ok {
		t.Fatalf("expected ownership of dan-8, got %v, %v", ok, err)
	}
	if ok, _ := resolver.Owns(context.Background(), 8, "eve-9"); ok {
		t.Fatalf("expected no ownership of eve-9")
	}
}

func TestResolveUnknownUser(t *testing.T) {
	resolver := NewResolver(newFakeUsers(), objectstore.New(objectstoretest.New(), objectstore.Config{}))

	if _, err := resolver.Resolve(context.Background(), 99); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

// --- fakes ----

type fakeUsers struct {
	owners      map[int64]Owner
	assignCalls int
	raceWith    string
}

func newFakeUsers(owners ...Owner) *fakeUsers {
	f := &fakeUsers{owners: make(map[int64]Owner)}
	for _, o := range owners {
		f.owners[o.UserID] = o
	}
	return f
}

func (f *fakeUsers) LookupOwner(ctx context.Context, userID int64) (Owner, error) {
	owner, ok := f.owners[userID]
	if !ok {
		return Owner{}, ErrUserNotFound
	}
	return owner, nil
}

func (f *fakeUsers) AssignBucket(ctx context.Context, userID int64, name string) (string, error) {
	f.assignCalls++
	owner, ok := f.owners[userID]
	if !ok {
		return "", ErrUserNotFound
	}
	if f.raceWith != "" && !owner.Bucket.IsAssigned() {
		owner.Bucket = Assigned(f.raceWith)
	}
	if stored, ok := owner.Bucket.Name(); ok {
		f.owners[userID] = owner
		return stored, nil
	}
	owner.Bucket = Assigned(name)
	f.owners[userID] = owner
	return name, nil
}

func (f *fakeUsers) ListAssigned(ctx context.Context) ([]string, error) {
	var names []string
	for _, o := range f.owners {
		if name, ok := o.Bucket.Name(); ok {
			names = append(names, name)
		}
	}
	return names, nil
}
