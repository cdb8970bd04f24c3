package access

import (
	"fmt"
	"net/url"

	"github.com/annolab/metahub/dao/model"
)

// Notification intents enqueued by the engine. Only the outbox row is
// built here; delivery happens in pkg/alert after the transaction
// commits.

func requestAccessMail(manager, requester *model.User, project *model.Project) *model.Notification {
	return &model.Notification{
		Kind:      model.NotificationRequestAccess,
		Recipient: manager.EmailAddress(),
		Subject:   fmt.Sprintf("Request to join %s", project.Name),
		Body: fmt.Sprintf(
			"%s (%s) has requested access to the project %s. "+
				"Please visit the project members page to accept or decline the request.",
			requester.Name, requester.EmailAddress(), project.Name),
	}
}

func requestAcceptedMail(user *model.User, project *model.Project) *model.Notification {
	return &model.Notification{
		Kind:      model.NotificationRequestAccepted,
		Recipient: user.EmailAddress(),
		Subject:   fmt.Sprintf("You have joined %s", project.Name),
		Body: fmt.Sprintf(
			"Your request to join the project %s has been accepted. "+
				"Datasets you import into the project are now visible to its members.",
			project.Name),
	}
}

func invitationMail(invitee, inviter *model.User, project *model.Project) *model.Notification {
	return &model.Notification{
		Kind:      model.NotificationInvitation,
		Recipient: invitee.EmailAddress(),
		Subject:   fmt.Sprintf("Invitation to join %s", project.Name),
		Body: fmt.Sprintf(
			"%s has invited you to join the project %s. "+
				"Sign in and open the project page to accept the invitation.",
			inviter.Name, project.Name),
	}
}

// newUserInvitationMail carries a registration link because the
// recipient has no account yet, only a placeholder row.
func newUserInvitationMail(email string, inviter *model.User, project *model.Project, host string) *model.Notification {
	link := fmt.Sprintf("%s/signup?email=%s", host, url.QueryEscape(email))
	return &model.Notification{
		Kind:      model.NotificationInvitationNewUser,
		Recipient: email,
		Subject:   fmt.Sprintf("Invitation to join %s", project.Name),
		Body: fmt.Sprintf(
			"%s has invited you to join the project %s. "+
				"Create an account to accept the invitation: %s",
			inviter.Name, project.Name, link),
	}
}
