package bucket

// Assignment is either Unassigned or Assigned to a bucket name.
type Assignment struct {
	name string
}

// Unassigned is the state of an account that never stored anything.
func Unassigned() Assignment {
	return Assignment{}
}

// Assigned records a persisted bucket name.
func Assigned(name string) Assignment {
	return Assignment{name: name}
}

// Name returns the bucket name and whether one is assigned.
func (a Assignment) Name() (string, bool) {
	return a.name, a.name != ""
}

// IsAssigned reports whether a bucket has been persisted.
func (a Assignment) IsAssigned() bool {
	return a.name != ""
}

func assignmentFrom(name *string) Assignment {
	if name == nil || *name == "" {
		return Unassigned()
	}
	return Assigned(*name)
}

// Owner is the identity a tenant bucket belongs to.
type Owner struct {
	UserID   int64
	Username string
	Bucket   Assignment
}
