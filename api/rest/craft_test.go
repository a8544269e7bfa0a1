package rest_test

import (
	"net/http"
	"testing"

	"github.com/kasuganosora/rpgcraft/game/craft"
	"github.com/kasuganosora/rpgcraft/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func helmet() map[string]interface{} {
	return map[string]interface{}{
		"slot":    "Helmet",
		"class":   "Heavy",
		"outer":   "Iron",
		"inner":   "Rawhide",
		"binding": "Linen",
	}
}

func TestCraftArmor_Created(t *testing.T) {
	env := newCraftEnv(t)
	auth := bearer(t, env.c, 1)

	w := postJSON(env.r, "/api/craft/armor", helmet(), auth...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode(t, w)
	assert.Equal(t, "armor", resp["kind"])
	item := resp["item"].(map[string]interface{})
	assert.Equal(t, "Heavy Helmet", item["name"])
	assert.Equal(t, "Helmet", item["slot"])
	assert.NotEmpty(t, item["id"])

	var n int64
	env.db.Model(&model.CraftedItem{}).Where("account_id = ?", 1).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestCraft_RequiresAuth(t *testing.T) {
	env := newCraftEnv(t)
	w := postJSON(env.r, "/api/craft/armor", helmet())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCraft_BadJSON(t *testing.T) {
	env := newCraftEnv(t)
	auth := bearer(t, env.c, 1)
	w := postJSON(env.r, "/api/craft/armor", map[string]string{"class": "Heavy"}, auth...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCraft_ErrorStatuses(t *testing.T) {
	env := newCraftEnv(t)
	auth := bearer(t, env.c, 1)

	unknownMat := helmet()
	unknownMat["outer"] = "Mithril"
	missingMat := helmet()
	delete(missingMat, "binding")
	banned := helmet()
	banned["name"] = "Helm of the GameMaster"
	badClass := helmet()
	badClass["class"] = "Plate"
	unknownSlot := helmet()
	unknownSlot["slot"] = "Tail"

	cases := []struct {
		name   string
		path   string
		body   interface{}
		status int
		kind   string
	}{
		{"unknown material", "/api/craft/armor", unknownMat, http.StatusNotFound, "material_not_found"},
		{"unknown slot", "/api/craft/armor", unknownSlot, http.StatusNotFound, "unknown_archetype"},
		{"missing material", "/api/craft/armor", missingMat, http.StatusUnprocessableEntity, "insufficient_materials"},
		{"bad class", "/api/craft/armor", badClass, http.StatusUnprocessableEntity, "invalid_parameter"},
		{"banned name", "/api/craft/armor", banned, http.StatusBadRequest, "banned_name"},
		{"spear as bow", "/api/craft/bow", map[string]interface{}{
			"type": "Spear",
			"components": []map[string]string{
				{"component": "Head", "material": "Iron"},
				{"component": "Shaft", "material": "Ash"},
			},
		}, http.StatusUnprocessableEntity, "invalid_archetype_for_operation"},
		{"unknown component", "/api/craft/weapon", map[string]interface{}{
			"type":       "Spear",
			"components": []map[string]string{{"component": "Blade", "material": "Iron"}},
		}, http.StatusNotFound, "unknown_component"},
		{"hollow out of range", "/api/craft/weapon", map[string]interface{}{
			"type":          "Spear",
			"hollow_factor": 1.0,
			"components": []map[string]string{
				{"component": "Head", "material": "Iron"},
				{"component": "Shaft", "material": "Ash"},
			},
		}, http.StatusUnprocessableEntity, "invalid_parameter"},
		{"jewelry tier zero", "/api/craft/jewelry", map[string]interface{}{
			"kind": "Ring", "metal": "Gold", "tier": 0,
		}, http.StatusUnprocessableEntity, "invalid_parameter"},
		{"amulet tier overflow", "/api/craft/jewelry", map[string]interface{}{
			"kind": "Amulet", "metal": "Gold", "tier": craft.MaxJewelryTier + 1,
		}, http.StatusUnprocessableEntity, "invalid_parameter"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(env.r, tc.path, tc.body, auth...)
			require.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Equal(t, tc.kind, decode(t, w)["kind"])
		})
	}
}

func TestCraft_AllFamilies(t *testing.T) {
	env := newCraftEnv(t)
	auth := bearer(t, env.c, 3)

	cases := []struct {
		path string
		body interface{}
		kind string
	}{
		{"/api/craft/weapon", map[string]interface{}{
			"type":          "Spear",
			"hollow_factor": 0.5,
			"components": []map[string]string{
				{"component": "Head", "material": "Steel"},
				{"component": "Shaft", "material": "Ash"},
			},
		}, "weapon"},
		{"/api/craft/bow", map[string]interface{}{
			"type": "Bow",
			"components": []map[string]string{
				{"component": "Stave", "material": "Yew"},
				{"component": "String", "material": "Hemp"},
			},
		}, "weapon"},
		{"/api/craft/shield", map[string]interface{}{
			"type": "Tower",
			"components": []map[string]string{
				{"component": "Body", "material": "Oak"},
				{"component": "Rim", "material": "Iron"},
			},
		}, "shield"},
		{"/api/craft/siege", map[string]interface{}{
			"type": "Catapult",
			"components": []map[string]string{
				{"component": "Frame", "material": "Oak"},
				{"component": "Arm", "material": "Ash"},
				{"component": "Bucket", "material": "Iron"},
				{"component": "Rope", "material": "Hemp"},
			},
		}, "siege"},
		{"/api/craft/jewelry", map[string]interface{}{
			"kind": "amulet", "metal": "Silver", "tier": 2,
		}, "amulet"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			w := postJSON(env.r, tc.path, tc.body, auth...)
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
			assert.Equal(t, tc.kind, decode(t, w)["kind"])
		})
	}

	w := getJSON(env.r, "/api/crafts", auth...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, len(cases), decode(t, w)["count"])
}

func TestCrafts_RecentAndGet(t *testing.T) {
	env := newCraftEnv(t)
	alice := bearer(t, env.c, 1)
	bob := bearer(t, env.c, 2)

	w := postJSON(env.r, "/api/craft/armor", helmet(), alice...)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["item"].(map[string]interface{})["id"].(string)

	w = getJSON(env.r, "/api/crafts", alice...)
	require.Equal(t, http.StatusOK, w.Code)
	crafts := decode(t, w)["crafts"].([]interface{})
	require.Len(t, crafts, 1)
	assert.Equal(t, id, crafts[0].(map[string]interface{})["id"])

	w = getJSON(env.r, "/api/crafts/"+id, alice...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Heavy Helmet", decode(t, w)["name"])

	w = getJSON(env.r, "/api/crafts/"+id, bob...)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = getJSON(env.r, "/api/crafts", bob...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["count"])
}
