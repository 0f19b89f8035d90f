package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"wagerly/events"
	"wagerly/models"

	"github.com/bwmarrin/discordgo"
)

const (
	colorBlue   = 0x3498db
	colorGreen  = 0x2ecc71
	colorOrange = 0xe67e22
)

// embedSender is the part of *discordgo.Session the notifier needs
type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts bet announcements to a Discord channel
type DiscordNotifier struct {
	session   embedSender
	channelID string
}

// NewDiscordNotifier creates a notifier using the bot token. Only the REST API
// is used, so no gateway connection is opened.
func NewDiscordNotifier(token, channelID string) (*DiscordNotifier, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	return &DiscordNotifier{session: dg, channelID: channelID}, nil
}

func (n *DiscordNotifier) Name() string { return "discord" }

// Notify announces bet lifecycle milestones; wallet events stay private
func (n *DiscordNotifier) Notify(ctx context.Context, event events.Event) error {
	embed := buildEmbed(event)
	if embed == nil {
		return nil
	}

	if _, err := n.session.ChannelMessageSendEmbed(n.channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to post %s to channel %s: %w", event.Type(), n.channelID, err)
	}
	return nil
}

func buildEmbed(event events.Event) *discordgo.MessageEmbed {
	switch e := event.(type) {
	case events.BetCreatedEvent:
		return &discordgo.MessageEmbed{
			Title:       "🎲 New bet: " + e.Title,
			Description: fmt.Sprintf("%d participants invited", len(e.InviteeIDs)),
			Color:       colorBlue,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Stake", Value: models.FormatUSD(e.StakeAmount), Inline: true},
				{Name: "Bet", Value: "#" + strconv.FormatInt(e.BetID, 10), Inline: true},
			},
		}

	case events.BetResolvedEvent:
		winners := "Nobody picked the correct option"
		if len(e.WinnerIDs) > 0 {
			winners = fmt.Sprintf("%d winners receive %s each", len(e.WinnerIDs), models.FormatUSD(e.RewardPerWinner))
		}
		return &discordgo.MessageEmbed{
			Title:       "🏆 Bet resolved: " + e.Title,
			Description: winners,
			Color:       colorGreen,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Pot", Value: models.FormatUSD(e.TotalPot), Inline: true},
				{Name: "Participants", Value: strconv.Itoa(len(e.WinnerIDs) + len(e.LoserIDs)), Inline: true},
			},
		}

	case events.DisputeFiledEvent:
		return &discordgo.MessageEmbed{
			Title:       "⚠️ Dispute filed on bet #" + strconv.FormatInt(e.BetID, 10),
			Description: truncate(e.Reason, 1024),
			Color:       colorOrange,
		}
	}
	return nil
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
