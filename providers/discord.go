package providers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrymomot/authkit/pkg/provider"
)

// Discord returns the Discord OAuth descriptor. Users without a custom
// avatar resolve to one of Discord's default embed avatars.
func Discord(opts Options) *provider.OAuth2 {
	return opts.apply(&provider.OAuth2{
		ID:            "discord",
		Name:          "Discord",
		Authorization: provider.Endpoint{URL: "https://discord.com/api/oauth2/authorize"},
		Token:         provider.Endpoint{URL: "https://discord.com/api/oauth2/token"},
		UserInfo:      provider.Endpoint{URL: "https://discord.com/api/users/@me"},
		Scopes:        []string{"identify", "email"},
		Profile: func(raw map[string]any) (provider.Profile, error) {
			id := str(raw, "id")
			image := discordAvatarURL(id, str(raw, "avatar"), str(raw, "discriminator"))
			return provider.Profile{
				ID:    id,
				Name:  str(raw, "username"),
				Email: str(raw, "email"),
				Image: image,
			}, nil
		},
	})
}

func discordAvatarURL(id, avatar, discriminator string) string {
	if avatar == "" {
		n, _ := strconv.Atoi(discriminator)
		return fmt.Sprintf("https://cdn.discordapp.com/embed/avatars/%d.png", n%5)
	}
	format := "png"
	if strings.HasPrefix(avatar, "a_") {
		format = "gif"
	}
	return fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.%s", id, avatar, format)
}
