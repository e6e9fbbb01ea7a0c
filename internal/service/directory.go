package service

import (
	"context"

	"github.com/google/uuid"
)

// StaticGroupDirectory answers membership lookups from a fixed
// group -> members table loaded at startup. It stands in for a real
// workspace directory service.
type StaticGroupDirectory struct {
	members map[uuid.UUID]map[uuid.UUID]struct{}
}

// NewStaticGroupDirectory builds a directory from config. Entries with
// malformed UUIDs are skipped.
func NewStaticGroupDirectory(groups map[string][]string) *StaticGroupDirectory {
	d := &StaticGroupDirectory{
		members: make(map[uuid.UUID]map[uuid.UUID]struct{}, len(groups)),
	}
	for groupStr, userStrs := range groups {
		groupID, err := uuid.Parse(groupStr)
		if err != nil {
			continue
		}
		set := make(map[uuid.UUID]struct{}, len(userStrs))
		for _, userStr := range userStrs {
			userID, err := uuid.Parse(userStr)
			if err != nil {
				continue
			}
			set[userID] = struct{}{}
		}
		d.members[groupID] = set
	}
	return d
}

// IsMember reports whether the user belongs to the group. Unknown
// groups resolve to false, not an error.
func (d *StaticGroupDirectory) IsMember(_ context.Context, userID, groupID uuid.UUID) (bool, error) {
	set, ok := d.members[groupID]
	if !ok {
		return false, nil
	}
	_, ok = set[userID]
	return ok, nil
}
