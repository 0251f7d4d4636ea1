// Package resources names the console's resource keys and registers the
// transforms that turn their responses into presenters.
package resources

import (
	"fmt"
	"net/http"

	"github.com/parisxmas/central-admin/internal/central"
	"github.com/parisxmas/central-admin/internal/presenter"
	"github.com/parisxmas/central-admin/internal/requestdata"
)

const (
	Session     requestdata.Key = "session"
	CurrentUser requestdata.Key = "currentUser"
	Users       requestdata.Key = "users"
	Projects    requestdata.Key = "projects"
	Project     requestdata.Key = "project"
	Forms       requestdata.Key = "forms"
	Form        requestdata.Key = "form"
	Attachments requestdata.Key = "attachments"
	// DraftAttachments are the attachments of a form's draft.
	DraftAttachments requestdata.Key = "draftAttachments"
	Submissions      requestdata.Key = "submissions"
	FieldKeys        requestdata.Key = "fieldKeys"
	BackupsConfig    requestdata.Key = "backupsConfig"
	Audits           requestdata.Key = "audits"
)

// All lists every key in display order.
var All = []requestdata.Key{
	Session, CurrentUser, Users, Projects, Project, Forms, Form,
	Attachments, DraftAttachments, Submissions, FieldKeys, BackupsConfig, Audits,
}

// NewRegistry returns a registry with a transform for every key.
func NewRegistry() *requestdata.Registry {
	return requestdata.NewRegistry().
		Register(Session, requestdata.JSON[presenter.Session]()).
		Register(CurrentUser, requestdata.JSON[presenter.User]()).
		Register(Users, requestdata.JSON[[]presenter.User]()).
		Register(Projects, requestdata.JSON[[]presenter.Project]()).
		Register(Project, requestdata.JSON[presenter.Project]()).
		Register(Forms, requestdata.JSON[[]presenter.Form]()).
		Register(Form, requestdata.JSON[presenter.Form]()).
		Register(Attachments, requestdata.JSON[[]presenter.FormAttachment]()).
		Register(DraftAttachments, requestdata.JSON[[]presenter.FormAttachment]()).
		Register(Submissions, requestdata.JSON[presenter.SubmissionPage]()).
		Register(FieldKeys, requestdata.JSON[[]presenter.FieldKey]()).
		Register(BackupsConfig, backupsConfig).
		Register(Audits, requestdata.JSON[[]presenter.Audit]())
}

// BackupsNotConfigured matches the Problem the backend returns when no
// backups are configured. Requests for BackupsConfig pass it to
// requestdata.FulfillProblem.
func BackupsNotConfigured(p central.Problem) bool {
	return p.Is(404.1)
}

func backupsConfig(resp *central.Response) (any, error) {
	if resp.Status == http.StatusNotFound {
		return presenter.NotConfiguredBackups(), nil
	}
	var config presenter.BackupsConfig
	if err := resp.Decode(&config); err != nil {
		return nil, fmt.Errorf("backups config: %w", err)
	}
	return config, nil
}
