package store

import "errors"

var (
	// ErrNotFound covers both a missing document and a malformed id.
	ErrNotFound = errors.New("record not found")
	// ErrSelfVote is returned when an issue's creator tries to upvote it.
	ErrSelfVote = errors.New("cannot upvote your own issue")
	// ErrAlreadyVoted is returned on a second upvote by the same identity.
	ErrAlreadyVoted = errors.New("already upvoted this issue")
	// ErrDuplicate signals a unique-key collision on insert.
	ErrDuplicate = errors.New("record already exists")
)
