package central

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// ------------------------------------------------------------------
// Paths
// ------------------------------------------------------------------

func projectPath(projectID int) string {
	return "projects/" + strconv.Itoa(projectID)
}

func formPath(projectID int, xmlFormID string) string {
	return projectPath(projectID) + "/forms/" + url.PathEscape(xmlFormID)
}

// ODataQuery holds the paging parameters of an OData collection request.
// Filter expressions are not built here.
type ODataQuery struct {
	Top   int
	Skip  int
	Count bool
	WKT   bool
}

// Values encodes the query as $-prefixed OData parameters.
func (q ODataQuery) Values() url.Values {
	v := url.Values{}
	if q.Top > 0 {
		v.Set("$top", strconv.Itoa(q.Top))
	}
	if q.Skip > 0 {
		v.Set("$skip", strconv.Itoa(q.Skip))
	}
	if q.Count {
		v.Set("$count", "true")
	}
	if q.WKT {
		v.Set("$wkt", "true")
	}
	return v
}

// extended asks the server to include computed metadata (counts, verbs).
func extended() http.Header {
	h := http.Header{}
	h.Set("X-Extended-Metadata", "true")
	return h
}

// ------------------------------------------------------------------
// Sessions and users
// ------------------------------------------------------------------

// CreateSession logs in with email and password.
func CreateSession(email, password string) Request {
	return Request{
		Method: http.MethodPost,
		URL:    "sessions",
		JSON:   map[string]string{"email": email, "password": password},
	}
}

// DeleteSession logs the session with the given token out.
func DeleteSession(token string) Request {
	return Request{Method: http.MethodDelete, URL: "sessions/" + url.PathEscape(token)}
}

// CurrentUser returns the authenticated user with their verbs.
func CurrentUser() Request {
	return Request{Method: http.MethodGet, URL: "users/current", Header: extended()}
}

// ListUsers returns every web user.
func ListUsers() Request {
	return Request{Method: http.MethodGet, URL: "users"}
}

// ------------------------------------------------------------------
// Projects and forms
// ------------------------------------------------------------------

// ListProjects returns the projects visible to the user.
func ListProjects() Request {
	return Request{Method: http.MethodGet, URL: "projects", Header: extended()}
}

// GetProject returns one project.
func GetProject(projectID int) Request {
	return Request{Method: http.MethodGet, URL: projectPath(projectID), Header: extended()}
}

// ListForms returns the forms of a project.
func ListForms(projectID int) Request {
	return Request{Method: http.MethodGet, URL: projectPath(projectID) + "/forms", Header: extended()}
}

// GetForm returns one form.
func GetForm(projectID int, xmlFormID string) Request {
	return Request{Method: http.MethodGet, URL: formPath(projectID, xmlFormID), Header: extended()}
}

// ListFormAttachments returns the attachments of a published form.
func ListFormAttachments(projectID int, xmlFormID string) Request {
	return Request{Method: http.MethodGet, URL: formPath(projectID, xmlFormID) + "/attachments"}
}

// ListDraftAttachments returns the attachments of the form's draft.
func ListDraftAttachments(projectID int, xmlFormID string) Request {
	return Request{Method: http.MethodGet, URL: formPath(projectID, xmlFormID) + "/draft/attachments"}
}

// UploadFormAttachment uploads an attachment to the form's draft.
func UploadFormAttachment(projectID int, xmlFormID, name string, body io.Reader, size int64, contentType string) Request {
	return Request{
		Method:      http.MethodPost,
		URL:         formPath(projectID, xmlFormID) + "/draft/attachments/" + url.PathEscape(name),
		Body:        body,
		Size:        size,
		ContentType: contentType,
	}
}

// ------------------------------------------------------------------
// Submissions
// ------------------------------------------------------------------

// ListSubmissions returns one OData page of a form's submissions.
func ListSubmissions(projectID int, xmlFormID string, q ODataQuery) Request {
	return Request{
		Method: http.MethodGet,
		URL:    formPath(projectID, xmlFormID) + ".svc/Submissions",
		Query:  q.Values(),
	}
}

// ------------------------------------------------------------------
// App users (field keys)
// ------------------------------------------------------------------

// ListFieldKeys returns the app users of a project.
func ListFieldKeys(projectID int) Request {
	return Request{Method: http.MethodGet, URL: projectPath(projectID) + "/app-users", Header: extended()}
}

// CreateFieldKey creates an app user.
func CreateFieldKey(projectID int, displayName string) Request {
	return Request{
		Method: http.MethodPost,
		URL:    projectPath(projectID) + "/app-users",
		JSON:   map[string]string{"displayName": displayName},
	}
}

// RevokeFieldKey revokes an app user's token by deleting its session.
func RevokeFieldKey(token string) Request {
	return DeleteSession(token)
}

// ------------------------------------------------------------------
// Backups and audits
// ------------------------------------------------------------------

// GetBackupsConfig returns the backups configuration. The server answers
// with problem 404.1 when backups are not configured.
func GetBackupsConfig() Request {
	return Request{Method: http.MethodGet, URL: "config/backups"}
}

// TerminateBackups removes the backups configuration.
func TerminateBackups() Request {
	return Request{Method: http.MethodDelete, URL: "config/backups"}
}

// ListBackupAudits returns the most recent backup audit entries.
func ListBackupAudits(limit int) Request {
	q := url.Values{}
	q.Set("action", "backup")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return Request{Method: http.MethodGet, URL: "audits", Query: q}
}

// Version returns the server version file. It lives outside the API path.
func Version() Request {
	return Request{Method: http.MethodGet, URL: "/version.txt"}
}

// WebPath returns the path of a page in the Central web UI.
func WebPath(projectID int, xmlFormID string) string {
	if projectID == 0 {
		return "/#/"
	}
	if xmlFormID == "" {
		return fmt.Sprintf("/#/projects/%d", projectID)
	}
	return fmt.Sprintf("/#/projects/%d/forms/%s", projectID, url.PathEscape(xmlFormID))
}
