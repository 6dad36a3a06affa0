package settings

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func member(userID string) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: userID}}
}

func TestCanManageDeveloperBypass(t *testing.T) {
	// The developer check never touches the session, so a nil session
	// proves no permission lookup happened.
	if !canManage(nil, "g1", member("dev-1"), "dev-1") {
		t.Fatal("expected configured developer to manage settings without admin role")
	}
}

func TestCanManageRejectsNonAdminNonDeveloper(t *testing.T) {
	if canManage(nil, "g1", nil, "dev-1") {
		t.Fatal("expected nil member to be rejected")
	}
	if canManage(nil, "g1", &discordgo.Member{}, "") {
		t.Fatal("expected member without user to be rejected")
	}
}
