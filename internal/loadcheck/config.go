// Package loadcheck drives a running gigmatch server with generated
// postings and profiles and checks its recommendations against the
// local scorer.
package loadcheck

import "time"

// Config holds configuration for a load check run.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumPostings int           // Number of postings to generate
	NumProfiles int           // Number of profiles to generate
	DupEvery    int           // Resubmit every n-th posting; 0 disables
	Workers     int           // Number of concurrent submitters
	Timeout     time.Duration // HTTP request timeout
	Settle      time.Duration // Max wait for the catalog to catch up
	Seed        uint64        // Generator seed
	OutputFile  string        // Optional dump of generated data
	Verbose     bool
}

// Stats holds run statistics.
type Stats struct {
	PostingsGenerated int
	Submitted         int
	Accepted          int
	Duplicates        int
	Failed            int
	ProfilesStored    int
	Recommendations   int
	Mismatches        int
	StartTime         time.Time
	Duration          time.Duration
}

// ackResponse mirrors the POST /postings body.
type ackResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}
