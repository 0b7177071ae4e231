package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" Teacher ")
	require.True(t, ok)
	assert.Equal(t, RoleTeacher, r)

	_, ok = ParseRole("admin")
	assert.False(t, ok)
}

func TestRole_Matches(t *testing.T) {
	assert.True(t, RoleStudent.Matches(RoleStudent))
	assert.False(t, RoleTeacher.Matches(RoleStudent))
	assert.True(t, RoleTeacher.Matches(RoleAny))
	assert.False(t, Role("admin").Matches(RoleAny))
	assert.Equal(t, RoleStudent, RoleTeacher.Other())
	assert.Equal(t, "any", RoleAny.String())
}

func TestIdentityPatch_ApplyKeepsAbsentFields(t *testing.T) {
	base := Identity{UserID: "7", Role: RoleStudent, FirstName: "Ada", LastName: "Lovelace"}
	first := "Augusta"

	got := IdentityPatch{FirstName: &first}.Apply(base)

	assert.Equal(t, Identity{UserID: "7", Role: RoleStudent, FirstName: "Augusta", LastName: "Lovelace"}, got)
	assert.True(t, IdentityPatch{}.Empty())
}

func TestWireUser_PatchFromJSON(t *testing.T) {
	var resp CheckAuthResponse
	require.NoError(t, json.Unmarshal([]byte(`{"authenticated":true,"user":{"id":42,"role":"teacher","firstName":"Grace"}}`), &resp))

	p := resp.User.Patch()
	require.NotNil(t, p.UserID)
	assert.Equal(t, "42", *p.UserID)
	require.NotNil(t, p.Role)
	assert.Equal(t, RoleTeacher, *p.Role)
	require.NotNil(t, p.FirstName)
	assert.Equal(t, "Grace", *p.FirstName)
	assert.Nil(t, p.LastName, "absent field must stay absent")
}

func TestWireUser_PatchIgnoresUnknownRole(t *testing.T) {
	role := "admin"
	p := (&WireUser{Role: &role}).Patch()
	assert.Nil(t, p.Role)

	var nilUser *WireUser
	assert.True(t, nilUser.Patch().Empty())
}

func TestFlexString_AcceptsStringAndNumber(t *testing.T) {
	var v struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"abc","b":17,"c":null}`), &v))
	assert.Equal(t, FlexString("abc"), v.A)
	assert.Equal(t, FlexString("17"), v.B)
	assert.Equal(t, FlexString(""), v.C)

	require.Error(t, json.Unmarshal([]byte(`{"a":{}}`), &v))
}

func TestQrSession_Expired(t *testing.T) {
	exp := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	s := QrSession{ExpiresAt: exp}

	assert.False(t, s.Expired(exp.Add(-time.Second)))
	assert.True(t, s.Expired(exp))
	assert.True(t, s.Expired(exp.Add(time.Second)))
}

func TestIdentity_DisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", Identity{UserID: "1", FirstName: "Ada", LastName: "Lovelace"}.DisplayName())
	assert.Equal(t, "1", Identity{UserID: "1"}.DisplayName())
}
