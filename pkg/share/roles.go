package share

// Role is the relationship of an actor to a share document.
type Role int

const (
	// RoleNone means the actor has no relationship to the document
	RoleNone Role = iota

	// RoleViewer grants read access only
	RoleViewer

	// RoleMaintainer grants write access to contents and deletion of
	// entries the maintainer personally contributed
	RoleMaintainer

	// RoleAuthor grants full control, including participant and album
	// management and share deletion
	RoleAuthor
)

// String returns the role name for logging.
func (r Role) String() string {
	switch r {
	case RoleAuthor:
		return "author"
	case RoleMaintainer:
		return "maintainer"
	case RoleViewer:
		return "viewer"
	default:
		return "none"
	}
}

// RoleOf returns the role actorID holds on doc.
//
// The permission matrix for every operation consults this single function:
//
//	maintainers/viewers/album/sticky mutation  -> RoleAuthor
//	contents.add, contents.delete              -> RoleAuthor or RoleMaintainer
//	read access                                -> any role except RoleNone
func RoleOf(actorID string, doc *Doc) Role {
	switch {
	case actorID == doc.Author:
		return RoleAuthor
	case containsID(doc.Maintainers, actorID):
		return RoleMaintainer
	case containsID(doc.Viewers, actorID):
		return RoleViewer
	default:
		return RoleNone
	}
}
