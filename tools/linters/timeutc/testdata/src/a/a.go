package a

import "time"

func recordCompletion() {
	_ = time.Now() // want "time.Now\\(\\) must be chained with .UTC\\(\\); stored timestamps assume UTC"
}

func recordCompletionUTC() {
	_ = time.Now().UTC()
}

func stampUpdate() {
	now := time.Now() // want "time.Now\\(\\) must be chained with .UTC\\(\\); stored timestamps assume UTC"
	_ = now
}

func stampUpdateUTC() {
	now := time.Now().UTC()
	_ = now
}

func formatTimestamp() {
	_ = time.Now().UTC().Format(time.RFC3339)
}

func suppressedBare() {
	//nolint
	_ = time.Now()
}

func suppressedScoped() {
	_ = time.Now() //nolint:timeutc
}

func suppressedForAnotherLinter() {
	_ = time.Now() //nolint:otherlinter // want "time.Now\\(\\) must be chained with .UTC\\(\\); stored timestamps assume UTC"
}
