package presenter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestSessionExpiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: now.Add(90 * time.Second)}

	assert.False(t, s.Expired(now))
	assert.Equal(t, 90*time.Second, s.ExpiresIn(now))
	assert.True(t, s.Expired(now.Add(90*time.Second)))
	assert.Zero(t, s.ExpiresIn(now.Add(time.Hour)))
}

func TestUserVerbsAndName(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"displayName":"","email":"alice@example.org","createdAt":"2018-04-18T23:19:14.802Z","deletedAt":null,"verbs":["project.create","user.list"]}`), &u))

	assert.True(t, u.Can("user.list"))
	assert.False(t, u.Can("config.set"))
	assert.Equal(t, "alice@example.org", u.NameOrEmail())
	assert.False(t, u.Deleted())
}

func TestProjectGetters(t *testing.T) {
	p := Project{Name: "Water", Archived: true, KeyID: ptr(3)}
	assert.Equal(t, "Water (archived)", p.NameWithArchived())
	assert.True(t, p.Encrypted())

	p = Project{Name: "Water"}
	assert.Equal(t, "Water", p.NameWithArchived())
	assert.False(t, p.Encrypted())
}

func TestFormGetters(t *testing.T) {
	var f Form
	require.NoError(t, json.Unmarshal([]byte(`{"projectId":1,"xmlFormId":"simple","name":null,"version":"","state":"closed","keyId":null,"publishedAt":"2024-01-02T00:00:00Z","createdAt":"2024-01-01T00:00:00Z"}`), &f))

	assert.Equal(t, "simple", f.NameOrID())
	assert.Equal(t, "(blank)", f.VersionOrBlank())
	assert.True(t, f.Published())
	assert.False(t, f.Encrypted())
	assert.True(t, f.Closed())

	f.Name = ptr("Simple")
	f.Version = "v1"
	f.PublishedAt = nil
	assert.Equal(t, "Simple", f.NameOrID())
	assert.Equal(t, "v1", f.VersionOrBlank())
	assert.False(t, f.Published())
}

func TestSubmissionRow(t *testing.T) {
	body := `{"value":[{"__id":"uuid:1","age":31,"name":"Ada","__system":{"submissionDate":"2024-02-01T00:00:00Z","submitterId":"5","submitterName":"","attachmentsPresent":1,"attachmentsExpected":3,"status":null,"reviewState":null,"edits":2}}],"@odata.count":12,"@odata.nextLink":"https://x/v1/projects/1/forms/simple.svc/Submissions?%24skiptoken=abc"}`

	var page SubmissionPage
	require.NoError(t, json.Unmarshal([]byte(body), &page))
	require.Len(t, page.Value, 1)
	assert.True(t, page.HasMore())
	assert.Equal(t, 12, *page.Count)

	s := page.Value[0]
	assert.Equal(t, "uuid:1", s.InstanceID())
	assert.Equal(t, ReviewReceived, s.ReviewState())
	assert.Equal(t, 2, s.MissingAttachments())
	assert.True(t, s.Edited())
	assert.Equal(t, "#5", s.SubmitterName())
	assert.Equal(t, map[string]any{"age": 31.0, "name": "Ada"}, s.Fields)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"__id":"uuid:1"`)
	assert.Contains(t, string(out), `"name":"Ada"`)
}

func TestSubmissionReviewStateSet(t *testing.T) {
	s := Submission{System: SubmissionSystem{ReviewState: ptr(ReviewApproved), SubmitterName: "Bob", AttachmentsPresent: 2, AttachmentsExpected: 1}}
	assert.Equal(t, ReviewApproved, s.ReviewState())
	assert.Equal(t, "Bob", s.SubmitterName())
	assert.Zero(t, s.MissingAttachments())
	assert.False(t, s.Edited())
}

func TestBackupsStatus(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	setAt := now.Add(-10 * 24 * time.Hour)
	ok := Audit{Action: "backup", Details: map[string]any{"success": true}, LoggedAt: now.Add(-24 * time.Hour)}
	failed := Audit{Action: "backup", Details: map[string]any{"success": false}, LoggedAt: now.Add(-time.Hour)}
	old := Audit{Action: "backup", Details: map[string]any{"success": true}, LoggedAt: now.Add(-4 * 24 * time.Hour)}

	cases := []struct {
		name   string
		config BackupsConfig
		recent bool
		status string
	}{
		{"not configured", NotConfiguredBackups(), false, BackupsNotConfigured},
		{"never run, just set", BackupsConfig{Type: "google", SetAt: now.Add(-time.Hour)}, false, BackupsNeverRun},
		{"never run, long ago", BackupsConfig{Type: "google", SetAt: setAt}, false, BackupsSomethingWentWrong},
		{"recent success", BackupsConfig{Type: "google", SetAt: setAt}.WithAudits([]Audit{old, ok}), true, BackupsSuccess},
		{"latest failed", BackupsConfig{Type: "google", SetAt: setAt}.WithAudits([]Audit{ok, failed}), false, BackupsSomethingWentWrong},
		{"success too old", BackupsConfig{Type: "google", SetAt: setAt}.WithAudits([]Audit{old}), false, BackupsSomethingWentWrong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.recent, tc.config.Recent(now))
			assert.Equal(t, tc.status, tc.config.Status(now))
		})
	}
}

func TestBackupsIgnoresAuditsBeforeSetAt(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	b := BackupsConfig{Type: "google", SetAt: now.Add(-time.Hour)}.WithAudits([]Audit{
		{Action: "backup", Details: map[string]any{"success": true}, LoggedAt: now.Add(-2 * time.Hour)},
	})
	assert.Nil(t, b.Latest)
	assert.Equal(t, BackupsNeverRun, b.Status(now))
}

func TestFieldKeyRevocation(t *testing.T) {
	var keys []FieldKey
	require.NoError(t, json.Unmarshal([]byte(`[{"id":1,"displayName":"Tablet","token":"abc"},{"id":2,"displayName":"Old","token":null}]`), &keys))

	assert.True(t, keys[0].Active())
	assert.True(t, keys[1].Revoked())

	revoked := keys[0].Revoke()
	assert.True(t, revoked.Revoked())
	assert.True(t, keys[0].Active())
}

func TestMissingFormAttachments(t *testing.T) {
	assert.Equal(t, 1, MissingAttachments([]FormAttachment{
		{Name: "logo.png", Exists: true},
		{Name: "list.csv"},
	}))
}
