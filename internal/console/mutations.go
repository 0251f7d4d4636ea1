package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/parisxmas/central-admin/internal/central"
	"github.com/parisxmas/central-admin/internal/presenter"
	"github.com/parisxmas/central-admin/internal/requestdata"
	"github.com/parisxmas/central-admin/internal/resources"
)

// do sends a request that is not tracked by a resource key. Failures are
// shown on the banner.
func (c *Console) do(ctx context.Context, req central.Request) (*central.Response, error) {
	c.Touch()
	resp, err := c.Client.Do(ctx, req)
	if err != nil {
		c.Banner.Error(err, nil)
		return nil, err
	}
	return resp, nil
}

// CreateFieldKey creates an app user and adds it to the loaded list.
func (c *Console) CreateFieldKey(ctx context.Context, projectID int, displayName string) (presenter.FieldKey, error) {
	if displayName == "" {
		err := &central.ValidationError{Msg: "Please enter a display name."}
		c.Banner.Error(err, nil)
		return presenter.FieldKey{}, err
	}
	resp, err := c.do(ctx, central.CreateFieldKey(projectID, displayName))
	if err != nil {
		return presenter.FieldKey{}, err
	}
	var key presenter.FieldKey
	if err := resp.Decode(&key); err != nil {
		return presenter.FieldKey{}, err
	}
	if c.loadedFor(resources.FieldKeys, projectID) {
		_ = requestdata.PatchAs(c.Data, resources.FieldKeys, func(keys []presenter.FieldKey) []presenter.FieldKey {
			return append([]presenter.FieldKey{key}, keys...)
		})
	}
	c.Banner.Success(fmt.Sprintf("The App User %q was created successfully.", displayName))
	return key, nil
}

// RevokeFieldKey revokes the token of a loaded app user.
func (c *Console) RevokeFieldKey(ctx context.Context, projectID, id int) (presenter.FieldKey, error) {
	var key *presenter.FieldKey
	if c.loadedFor(resources.FieldKeys, projectID) {
		keys, _ := requestdata.Data[[]presenter.FieldKey](c.Data, resources.FieldKeys)
		for i := range keys {
			if keys[i].ID == id {
				key = &keys[i]
				break
			}
		}
	}
	var verr *central.ValidationError
	switch {
	case key == nil:
		verr = &central.ValidationError{Msg: "The App User could not be found."}
	case key.Revoked():
		verr = &central.ValidationError{Msg: "Access for the App User has already been revoked."}
	}
	if verr != nil {
		c.Banner.Error(verr, nil)
		return presenter.FieldKey{}, verr
	}

	if _, err := c.do(ctx, central.RevokeFieldKey(*key.Token)); err != nil {
		return presenter.FieldKey{}, err
	}
	revoked := key.Revoke()
	_ = requestdata.PatchAs(c.Data, resources.FieldKeys, func(keys []presenter.FieldKey) []presenter.FieldKey {
		out := make([]presenter.FieldKey, len(keys))
		for i, k := range keys {
			if k.ID == id {
				k = k.Revoke()
			}
			out[i] = k
		}
		return out
	})
	c.Banner.Success(fmt.Sprintf("Access was revoked for the App User %q.", revoked.DisplayName))
	return revoked, nil
}

// UploadAttachment uploads a file to a form's draft. Files larger than the
// configured maximum are rejected before anything is sent. When the draft's
// attachments of that form are on display they are requested again.
func (c *Console) UploadAttachment(ctx context.Context, projectID int, xmlFormID, name string, body io.Reader, size int64, contentType string) error {
	if _, err := c.do(ctx, central.UploadFormAttachment(projectID, xmlFormID, name, body, size, contentType)); err != nil {
		return err
	}
	route := c.Route()
	if route.Name == RouteFormDraft && route.Param("xmlFormId") == xmlFormID &&
		c.loadedFor(resources.DraftAttachments, projectID) {
		_, err := c.Data.Refresh(ctx, resources.DraftAttachments)
		if err != nil && !errors.Is(err, requestdata.ErrStale) {
			log.Printf("Warning: reloading draft attachments of %s: %v", xmlFormID, err)
		}
	}
	c.Banner.Success(fmt.Sprintf("The file %q was uploaded successfully.", name))
	return nil
}

// TerminateBackups removes the backups configuration.
func (c *Console) TerminateBackups(ctx context.Context) error {
	if _, err := c.do(ctx, central.TerminateBackups()); err != nil {
		return err
	}
	c.Data.Set(resources.BackupsConfig, presenter.NotConfiguredBackups())
	c.Banner.Success("Your automatic backups were terminated.")
	return nil
}

// loadedFor reports whether key holds data loaded on a route of the project.
func (c *Console) loadedFor(key requestdata.Key, projectID int) bool {
	return c.Route().Param("projectId") == fmt.Sprint(projectID) && c.Data.Get(key).DataExists()
}
