package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/kasuganosora/rpgcraft/model"
	"github.com/kasuganosora/rpgcraft/plugin/hook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func parts(pairs ...string) []map[string]string {
	out := make([]map[string]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, map[string]string{"component": pairs[i], "material": pairs[i+1]})
	}
	return out
}

func TestCraftFlow_EveryFamily(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()
	token, accountID := ts.Login(t, UniqueID("smith"), "pass1234")

	helm := ts.Craft(t, token, "armor", map[string]string{
		"slot": "Helmet", "class": "Heavy", "outer": "Iron", "inner": "Rawhide", "binding": "Linen",
	})
	assert.Equal(t, "Heavy Helmet", helm["name"])

	spear := ts.Craft(t, token, "weapon", map[string]interface{}{
		"type": "Spear", "hollow_factor": 0.3, "components": parts("Head", "Steel", "Shaft", "Ash"),
	})
	assert.InDelta(t, 0.3, spear["hollow_factor"], 1e-9)

	ts.Craft(t, token, "bow", map[string]interface{}{
		"type": "Bow", "components": parts("Stave", "Yew", "String", "Hemp"),
	})
	ts.Craft(t, token, "shield", map[string]interface{}{
		"type": "Round", "components": parts("Body", "Oak", "Boss", "Iron", "Rim", "Iron"),
	})
	ts.Craft(t, token, "siege", map[string]interface{}{
		"type": "Ballista", "components": parts("Frame", "Oak", "Arms", "Yew", "String", "Hemp", "Trigger", "Iron"),
	})
	ring := ts.Craft(t, token, "jewelry", map[string]interface{}{"kind": "Ring", "metal": "Gold", "tier": 4})
	assert.Contains(t, []interface{}{"Intelligence", "Strength"}, ring["attribute"])

	// recent list is capped at 5, newest first
	resp := ts.Get(t, "/api/crafts", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Crafts []model.CraftedItem `json:"crafts"`
	}
	ReadJSON(t, resp, &list)
	require.Len(t, list.Crafts, 5)
	assert.Equal(t, ring["id"], list.Crafts[0].ID)
	for _, row := range list.Crafts {
		assert.Equal(t, accountID, row.AccountID)
	}

	// the ledger keeps everything
	var n int64
	ts.DB.Model(&model.CraftedItem{}).Where("account_id = ?", accountID).Count(&n)
	assert.Equal(t, int64(6), n)

	resp = ts.Get(t, "/api/crafts/"+helm["id"].(string), token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var row model.CraftedItem
	ReadJSON(t, resp, &row)
	assert.Equal(t, "Helmet", row.Archetype)
	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(row.Stats, &stats))
	assert.Len(t, stats["bill_of_materials"], 3)
}

func TestCraftFlow_EventsAreScopedToCrafter(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()
	alice, aliceID := ts.Login(t, UniqueID("alice"), "pass1234")
	bob, _ := ts.Login(t, UniqueID("bob"), "pass1234")

	events := ts.OpenEvents(t, alice)
	defer events.Close()

	ts.Craft(t, bob, "jewelry", map[string]interface{}{"kind": "Earring", "metal": "Silver", "tier": 1})
	mine := ts.Craft(t, alice, "jewelry", map[string]interface{}{"kind": "Amulet", "metal": "Gold", "tier": 1})

	name, data := events.Next(t)
	require.Equal(t, "craft", name)
	var ev map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, mine["id"], ev["id"])
	assert.EqualValues(t, aliceID, ev["account_id"])

	resp := ts.Admin(t, http.MethodPost, "/api/admin/announce", map[string]string{"message": "double yield today"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	name, data = events.Next(t)
	assert.Equal(t, "announce", name)
	assert.Contains(t, data, "double yield today")
}

func TestCraftFlow_ErrorsAreAuditedAndCounted(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()
	token, accountID := ts.Login(t, UniqueID("clumsy"), "pass1234")

	resp := ts.PostJSON(t, "/api/craft/armor", map[string]string{
		"slot": "Helmet", "outer": "Adamant", "inner": "Rawhide", "binding": "Linen",
	}, token)
	var body map[string]interface{}
	status := resp.StatusCode
	ReadJSON(t, resp, &body)
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "material_not_found", body["kind"])

	ts.Craft(t, token, "armor", map[string]string{
		"slot": "Boots", "class": "Light", "outer": "Boiled Leather", "inner": "Linen", "binding": "Hemp",
	})

	// flush the audit queue
	ts.Audit.Stop(t.Context())
	var logs []model.AuditLog
	require.NoError(t, ts.DB.Where("account_id = ?", accountID).Order("id").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, "craft.armor", logs[0].Action)
	assert.NotEmpty(t, logs[0].Error)
	assert.Empty(t, logs[1].Error)

	resp = ts.Get(t, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.Contains(text, "rpgcraft_crafts_total") || strings.Contains(text, "crafts_total"))
	assert.Contains(t, text, `kind="material_not_found"`)
}

func TestCatalogBrowsing(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	resp := ts.Get(t, "/api/materials/boiled%20leather", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var m map[string]interface{}
	ReadJSON(t, resp, &m)
	assert.Equal(t, "Boiled Leather", m["name"])

	resp = ts.Get(t, "/api/archetypes/siege", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var arch map[string]interface{}
	ReadJSON(t, resp, &arch)
	assert.Len(t, arch["archetypes"], 4)

	resp = ts.Admin(t, http.MethodGet, "/api/admin/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status map[string]interface{}
	ReadJSON(t, resp, &status)
	loaded := status["volumes_loaded"].(map[string]interface{})
	assert.Equal(t, true, loaded["siege"])
}

func TestCraftFlow_HookBlocksFamily(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()
	ts.Hooks.Register(hook.BeforeCraft, 0, "disabled_families", hook.DisableFamilies("siege"))
	token, _ := ts.Login(t, UniqueID("blocked"), "pass1234")

	resp := ts.PostJSON(t, "/api/craft/siege", map[string]interface{}{
		"type": "Ballista", "components": parts("Frame", "Oak", "Arms", "Yew", "String", "Hemp", "Trigger", "Iron"),
	}, token)
	status := resp.StatusCode
	var body map[string]interface{}
	ReadJSON(t, resp, &body)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "craft_blocked", body["kind"])

	// other families are unaffected
	ts.Craft(t, token, "jewelry", map[string]interface{}{"kind": "Ring", "metal": "Copper", "tier": 1})
}
