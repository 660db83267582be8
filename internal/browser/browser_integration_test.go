//go:build integration

package browser_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweta-tw/superfill.ai/internal/browser"
	"github.com/sweta-tw/superfill.ai/internal/detector"
	"github.com/sweta-tw/superfill.ai/internal/types"
)

const signupPage = `<html><body>
<form>
  <label for="email">Email</label> <input id="email" type="email" name="email">
  <input name="hp_website" style="position:absolute;left:-9999px">
</form>
<my-card></my-card>
<script>
  customElements.define('my-card', class extends HTMLElement {
    constructor() {
      super();
      this.attachShadow({mode: 'open'}).innerHTML = '<label>City <input name="city"></label>';
    }
  });
</script>
</body></html>`

const contactPage = `<html><body>
<form><label for="tel">Phone number</label> <input id="tel" type="tel" name="phone"></form>
</body></html>`

func TestSessionManager_SnapshotAndFill_Integration(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/contact" {
			fmt.Fprintln(w, contactPage)
			return
		}
		fmt.Fprintln(w, signupPage)
	}))
	defer ts.Close()

	cfg := browser.DefaultConfig()
	cfg.NavigationTimeoutMs = 10000
	sm := browser.NewSessionManager(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer func() {
		_ = sm.Shutdown(context.Background())
	}()

	if err := sm.Start(ctx); err != nil {
		t.Skipf("Skipping: no browser available: %v", err)
	}

	sess, err := sm.CreateSession(ctx, ts.URL)
	require.NoError(t, err)

	snap, err := sm.Snapshot(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, snap.Honeypots, 1)
	assert.Equal(t, "hp_website", snap.Honeypots[0].Name)

	result := detector.New(detector.Options{}).Detect(snap.Root)
	require.True(t, result.Success)
	fields := result.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, types.PurposeEmail, fields[0].Purpose)
	assert.Equal(t, "city", fields[1].Name)

	require.NoError(t, sm.FillField(ctx, sess.ID, fields[0], "a@b.com"))
	page, ok := sm.Page(sess.ID)
	require.True(t, ok)
	v, err := page.Eval(`() => document.getElementById('email').value`)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", v.Value.String())

	// The same session moves on to the next page.
	require.NoError(t, sm.Navigate(ctx, sess.ID, ts.URL+"/contact"))
	meta, ok := sm.GetSession(sess.ID)
	require.True(t, ok)
	assert.Equal(t, ts.URL+"/contact", meta.URL)
	assert.NotEmpty(t, sm.ControlURL())

	snap, err = sm.Snapshot(ctx, sess.ID)
	require.NoError(t, err)
	result = detector.New(detector.Options{}).Detect(snap.Root)
	require.True(t, result.Success)
	require.Len(t, result.Fields(), 1)
	assert.Equal(t, types.PurposePhone, result.Fields()[0].Purpose)

	require.NoError(t, sm.CloseSession(sess.ID))
	assert.ErrorIs(t, sm.CloseSession(sess.ID), browser.ErrUnknownSession)
}
