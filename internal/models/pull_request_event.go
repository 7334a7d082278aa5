package models

// PullRequestEvent is the inbound webhook payload for one PR lifecycle event
type PullRequestEvent struct {
	Action        string         `json:"action" binding:"required"` // opened, synchronize, reopened, closed
	RepoOwner     string         `json:"repo_owner" binding:"required"`
	RepoName      string         `json:"repo_name" binding:"required"`
	PRNumber      int            `json:"pr_number" binding:"required"`
	HeadSHA       string         `json:"head_sha"`
	CommitAuthors []CommitAuthor `json:"commit_authors"`
}

// CommitAuthor identifies one commit author by platform account
type CommitAuthor struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
}

// IsClose checks if the event ends the PR's lifecycle
func (e *PullRequestEvent) IsClose() bool {
	return e.Action == "closed"
}
