package redisx

import "time"

const (
	// Cache nama user utk response createdByName: user_name:{user_id} -> fullName
	KeyUserName = "user_name:%s"
)

var (
	TTLUserName = 5 * time.Minute
)
