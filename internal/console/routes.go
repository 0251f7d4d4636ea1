package console

import (
	"strconv"

	"github.com/parisxmas/central-admin/internal/requestdata"
	"github.com/parisxmas/central-admin/internal/resources"
)

// Route names.
const (
	RouteHome        = "Home"
	RouteProject     = "ProjectOverview"
	RouteForm        = "FormOverview"
	RouteFormDraft   = "FormDraftStatus"
	RouteSubmissions = "FormSubmissions"
	RouteFieldKeys   = "FieldKeyList"
	RouteBackups     = "SystemBackups"
	RouteUsers       = "UserList"
)

func preserve(extra map[requestdata.Key][]string) map[requestdata.Key][]string {
	p := map[requestdata.Key][]string{
		resources.Session:     nil,
		resources.CurrentUser: nil,
	}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

func projectParams(projectID int) map[string]string {
	return map[string]string{"projectId": strconv.Itoa(projectID)}
}

func formParams(projectID int, xmlFormID string) map[string]string {
	return map[string]string{"projectId": strconv.Itoa(projectID), "xmlFormId": xmlFormID}
}

var (
	byProject = []string{"projectId"}
	byForm    = []string{"projectId", "xmlFormId"}
)

func HomeRoute() requestdata.Route {
	return requestdata.Route{
		Name:     RouteHome,
		Preserve: preserve(map[requestdata.Key][]string{resources.Projects: nil}),
	}
}

func ProjectRoute(projectID int) requestdata.Route {
	return requestdata.Route{
		Name:   RouteProject,
		Params: projectParams(projectID),
		Preserve: preserve(map[requestdata.Key][]string{
			resources.Project: byProject,
			resources.Forms:   byProject,
		}),
	}
}

func FormRoute(projectID int, xmlFormID string) requestdata.Route {
	return requestdata.Route{
		Name:   RouteForm,
		Params: formParams(projectID, xmlFormID),
		Preserve: preserve(map[requestdata.Key][]string{
			resources.Project:     byProject,
			resources.Form:        byForm,
			resources.Attachments: byForm,
		}),
	}
}

func FormDraftRoute(projectID int, xmlFormID string) requestdata.Route {
	return requestdata.Route{
		Name:   RouteFormDraft,
		Params: formParams(projectID, xmlFormID),
		Preserve: preserve(map[requestdata.Key][]string{
			resources.Project:          byProject,
			resources.Form:             byForm,
			resources.DraftAttachments: byForm,
		}),
	}
}

func SubmissionsRoute(projectID int, xmlFormID string) requestdata.Route {
	return requestdata.Route{
		Name:   RouteSubmissions,
		Params: formParams(projectID, xmlFormID),
		Preserve: preserve(map[requestdata.Key][]string{
			resources.Project: byProject,
			resources.Form:    byForm,
		}),
	}
}

func FieldKeysRoute(projectID int) requestdata.Route {
	return requestdata.Route{
		Name:   RouteFieldKeys,
		Params: projectParams(projectID),
		Preserve: preserve(map[requestdata.Key][]string{
			resources.Project:   byProject,
			resources.FieldKeys: byProject,
		}),
	}
}

func BackupsRoute() requestdata.Route {
	return requestdata.Route{
		Name: RouteBackups,
		Preserve: preserve(map[requestdata.Key][]string{
			resources.BackupsConfig: nil,
			resources.Audits:        nil,
		}),
	}
}

func UsersRoute() requestdata.Route {
	return requestdata.Route{
		Name:     RouteUsers,
		Preserve: preserve(map[requestdata.Key][]string{resources.Users: nil}),
	}
}
