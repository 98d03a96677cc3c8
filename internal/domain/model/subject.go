package model

import "time"

// Subject is a registered pull request that reviews can be triggered against.
type Subject struct {
	ID           int64
	RepoFullName string
	Number       int
	Title        string
	Author       string
	HeadSHA      string
	URL          string
	Additions    int
	Deletions    int
	ChangedFiles int
	RegisteredAt time.Time
}
