package models

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxPageNumber keeps (Number-1)*Size inside an int.
	MaxPageNumber = math.MaxInt / MaxPageSize
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Normalize applies the default and maximum page size and clamps the page
// number so the skip never overflows.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Skip() int64 {
	p = p.Normalize()
	return int64((p.Number - 1) * p.Size)
}

func (p Page) Limit() int64 {
	return int64(p.Normalize().Size)
}

type ListQuery struct {
	Search string
	Page   Page
}

type PostQuery struct {
	Search  string
	Popular bool
	Page    Page
}

type VoteKind string

const (
	VoteUp   VoteKind = "upvote"
	VoteDown VoteKind = "downvote"
)

func ParseVoteKind(s string) (VoteKind, error) {
	switch VoteKind(strings.TrimSpace(s)) {
	case VoteUp:
		return VoteUp, nil
	case VoteDown:
		return VoteDown, nil
	}
	return "", fmt.Errorf("invalid vote %q: want %q or %q", s, VoteUp, VoteDown)
}

// Field is the post counter this vote increments.
func (v VoteKind) Field() string {
	return string(v)
}
