package messaging

import "errors"

// Sentinel errors for the messaging service layer.
var (
	ErrNotFound      = errors.New("message not found")
	ErrNotEditable   = errors.New("message can no longer be edited")
	ErrNotSendable   = errors.New("message has already been queued or sent")
	ErrNotComplete   = errors.New("message delivery is still in progress")
	ErrNoRecipients  = errors.New("audience resolved to no recipients")
	ErrGroupNotFound = errors.New("activity group not found")
)
