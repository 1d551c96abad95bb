package models

import "time"

// EntityKind is the kind of GitHub object an interaction was about
type EntityKind string

const (
	EntityNone       EntityKind = ""
	EntityProfile    EntityKind = "profile"
	EntityRepository EntityKind = "repository"
)

// Outcome values of an Interaction
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Interaction is one handled user action
type Interaction struct {
	ConversationID int64
	Action         string
	Kind           EntityKind
	Entity         string
	Outcome        string
	Duration       time.Duration
	CreatedAt      time.Time
}

// EntityStat represents how often a profile or repository was viewed
type EntityStat struct {
	Kind     EntityKind `json:"kind"`
	Entity   string     `json:"entity"`
	Views    int        `json:"views"`
	LastSeen time.Time  `json:"last_seen"`
}
