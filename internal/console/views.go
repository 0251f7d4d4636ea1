package console

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/parisxmas/central-admin/internal/central"
	"github.com/parisxmas/central-admin/internal/presenter"
	"github.com/parisxmas/central-admin/internal/requestdata"
	"github.com/parisxmas/central-admin/internal/resources"
)

// DefaultPageSize is the number of submissions per page.
const DefaultPageSize = 250

// BackupAuditLimit is how many backup audits the backups view inspects.
const BackupAuditLimit = 10

type HomeView struct {
	Projects []presenter.Project `json:"projects"`
}

type ProjectView struct {
	Project presenter.Project `json:"project"`
	Forms   []presenter.Form  `json:"forms"`
}

type FormView struct {
	Project            presenter.Project          `json:"project"`
	Form               presenter.Form             `json:"form"`
	Attachments        []presenter.FormAttachment `json:"attachments"`
	MissingAttachments int                        `json:"missingAttachments"`
}

type SubmissionsView struct {
	Form     presenter.Form           `json:"form"`
	Page     presenter.SubmissionPage `json:"page"`
	PageSize int                      `json:"pageSize"`
	Skip     int                      `json:"skip"`
	HasMore  bool                     `json:"hasMore"`
}

type FieldKeysView struct {
	Project   presenter.Project    `json:"project"`
	FieldKeys []presenter.FieldKey `json:"fieldKeys"`
}

type BackupsView struct {
	Config presenter.BackupsConfig `json:"config"`
	Status string                  `json:"status"`
	Recent bool                    `json:"recent"`
}

type UsersView struct {
	Users []presenter.User `json:"users"`
}

// load is one request of a view. Reuse skips the request when the key still
// holds data preserved from the previous route.
type load struct {
	key   requestdata.Key
	req   central.Request
	opts  []requestdata.RequestOption
	reuse bool
}

// loadAll issues the loads concurrently and waits for all of them. The first
// failure is shown on the banner and returned; a superseded load yields
// requestdata.ErrStale.
func (c *Console) loadAll(ctx context.Context, loads ...load) error {
	var wg sync.WaitGroup
	errs := make([]error, len(loads))
	for i, l := range loads {
		if l.reuse && c.Data.Get(l.key).DataExists() {
			continue
		}
		wg.Add(1)
		go func(i int, l load) {
			defer wg.Done()
			_, errs[i] = c.Data.Request(ctx, l.key, l.req, l.opts...)
		}(i, l)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil && errors.Is(err, requestdata.ErrStale) {
			return err
		}
	}
	for _, err := range errs {
		if err != nil {
			c.Banner.Error(err, nil)
			return err
		}
	}
	return nil
}

func dataOf[T any](c *Console, key requestdata.Key) T {
	v, _ := requestdata.Data[T](c.Data, key)
	return v
}

// Home loads the project list.
func (c *Console) Home(ctx context.Context) (HomeView, error) {
	c.Navigate(HomeRoute())
	if err := c.loadAll(ctx, load{key: resources.Projects, req: central.ListProjects()}); err != nil {
		return HomeView{}, err
	}
	return HomeView{Projects: dataOf[[]presenter.Project](c, resources.Projects)}, nil
}

// Project loads a project and its forms.
func (c *Console) Project(ctx context.Context, projectID int) (ProjectView, error) {
	c.Navigate(ProjectRoute(projectID))
	err := c.loadAll(ctx,
		load{key: resources.Project, req: central.GetProject(projectID), reuse: true},
		load{key: resources.Forms, req: central.ListForms(projectID)},
	)
	if err != nil {
		return ProjectView{}, err
	}
	return ProjectView{
		Project: dataOf[presenter.Project](c, resources.Project),
		Forms:   dataOf[[]presenter.Form](c, resources.Forms),
	}, nil
}

// Form loads a form and its attachments.
func (c *Console) Form(ctx context.Context, projectID int, xmlFormID string) (FormView, error) {
	c.Navigate(FormRoute(projectID, xmlFormID))
	err := c.loadAll(ctx,
		load{key: resources.Project, req: central.GetProject(projectID), reuse: true},
		load{key: resources.Form, req: central.GetForm(projectID, xmlFormID), reuse: true},
		load{key: resources.Attachments, req: central.ListFormAttachments(projectID, xmlFormID)},
	)
	if err != nil {
		return FormView{}, err
	}
	attachments := dataOf[[]presenter.FormAttachment](c, resources.Attachments)
	return FormView{
		Project:            dataOf[presenter.Project](c, resources.Project),
		Form:               dataOf[presenter.Form](c, resources.Form),
		Attachments:        attachments,
		MissingAttachments: presenter.MissingAttachments(attachments),
	}, nil
}

// FormDraft loads a form and the attachments of its draft, which is where
// uploads go.
func (c *Console) FormDraft(ctx context.Context, projectID int, xmlFormID string) (FormView, error) {
	c.Navigate(FormDraftRoute(projectID, xmlFormID))
	err := c.loadAll(ctx,
		load{key: resources.Project, req: central.GetProject(projectID), reuse: true},
		load{key: resources.Form, req: central.GetForm(projectID, xmlFormID), reuse: true},
		load{key: resources.DraftAttachments, req: central.ListDraftAttachments(projectID, xmlFormID)},
	)
	if err != nil {
		return FormView{}, err
	}
	attachments := dataOf[[]presenter.FormAttachment](c, resources.DraftAttachments)
	return FormView{
		Project:            dataOf[presenter.Project](c, resources.Project),
		Form:               dataOf[presenter.Form](c, resources.Form),
		Attachments:        attachments,
		MissingAttachments: presenter.MissingAttachments(attachments),
	}, nil
}

// Submissions loads one page of a form's submissions. A pageSize of zero
// means DefaultPageSize.
func (c *Console) Submissions(ctx context.Context, projectID int, xmlFormID string, pageSize, skip int) (SubmissionsView, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	c.Navigate(SubmissionsRoute(projectID, xmlFormID))
	q := central.ODataQuery{Top: pageSize, Skip: skip, Count: true, WKT: true}
	err := c.loadAll(ctx,
		load{key: resources.Form, req: central.GetForm(projectID, xmlFormID), reuse: true},
		load{key: resources.Submissions, req: central.ListSubmissions(projectID, xmlFormID, q)},
	)
	if err != nil {
		return SubmissionsView{}, err
	}
	page := dataOf[presenter.SubmissionPage](c, resources.Submissions)
	return SubmissionsView{
		Form:     dataOf[presenter.Form](c, resources.Form),
		Page:     page,
		PageSize: pageSize,
		Skip:     skip,
		HasMore:  page.HasMore(),
	}, nil
}

// FieldKeys loads the app users of a project.
func (c *Console) FieldKeys(ctx context.Context, projectID int) (FieldKeysView, error) {
	c.Navigate(FieldKeysRoute(projectID))
	err := c.loadAll(ctx,
		load{key: resources.Project, req: central.GetProject(projectID), reuse: true},
		load{key: resources.FieldKeys, req: central.ListFieldKeys(projectID)},
	)
	if err != nil {
		return FieldKeysView{}, err
	}
	return FieldKeysView{
		Project:   dataOf[presenter.Project](c, resources.Project),
		FieldKeys: dataOf[[]presenter.FieldKey](c, resources.FieldKeys),
	}, nil
}

// Backups loads the backups configuration and the latest backup audits.
func (c *Console) Backups(ctx context.Context) (BackupsView, error) {
	c.Navigate(BackupsRoute())
	err := c.loadAll(ctx,
		load{
			key:  resources.BackupsConfig,
			req:  central.GetBackupsConfig(),
			opts: []requestdata.RequestOption{requestdata.FulfillProblem(resources.BackupsNotConfigured)},
		},
		load{key: resources.Audits, req: central.ListBackupAudits(BackupAuditLimit)},
	)
	if err != nil {
		return BackupsView{}, err
	}
	return c.backupsView(c.now()), nil
}

func (c *Console) backupsView(now time.Time) BackupsView {
	config := dataOf[presenter.BackupsConfig](c, resources.BackupsConfig).
		WithAudits(dataOf[[]presenter.Audit](c, resources.Audits))
	return BackupsView{Config: config, Status: config.Status(now), Recent: config.Recent(now)}
}

// Users loads the web users.
func (c *Console) Users(ctx context.Context) (UsersView, error) {
	c.Navigate(UsersRoute())
	if err := c.loadAll(ctx, load{key: resources.Users, req: central.ListUsers()}); err != nil {
		return UsersView{}, err
	}
	return UsersView{Users: dataOf[[]presenter.User](c, resources.Users)}, nil
}
