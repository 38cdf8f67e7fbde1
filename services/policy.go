package services

import "github.com/akinalp/gaduly/models"

// Policy decides who may change an existing message.
type Policy interface {
	CanModifyMessage(userID int64, message *models.Message) bool
}

// OwnershipPolicy lets only the author edit or delete a message. Roles are
// not consulted.
type OwnershipPolicy struct{}

func (OwnershipPolicy) CanModifyMessage(userID int64, message *models.Message) bool {
	return message != nil && message.UserID == userID
}
