package domain

import "time"

const (
	JobPrices  = "prices"
	JobAirdrop = "airdrop"
	JobFaucet  = "faucet"
)

// DigestJobs lists the scheduled digest names.
var DigestJobs = []string{JobPrices, JobAirdrop, JobFaucet}

// Digest is the last rendered message of a scheduled job.
type Digest struct {
	Job       string    `json:"job"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
