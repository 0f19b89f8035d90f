package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"wagerly/events"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEmbedSender struct {
	mock.Mock
}

func (m *mockEmbedSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(channelID, embed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.Message), args.Error(1)
}

func TestDiscordNotifier_Notify(t *testing.T) {
	ctx := context.Background()

	t.Run("resolution is announced with the payout", func(t *testing.T) {
		sender := new(mockEmbedSender)
		notifier := &DiscordNotifier{session: sender, channelID: "chan-1"}

		sender.On("ChannelMessageSendEmbed", "chan-1", mock.MatchedBy(func(e *discordgo.MessageEmbed) bool {
			return strings.Contains(e.Title, "Derby") &&
				e.Description == "2 winners receive $45.00 each" &&
				e.Fields[0].Value == "$90.00"
		})).Return(&discordgo.Message{ID: "m1"}, nil)

		err := notifier.Notify(ctx, events.BetResolvedEvent{
			BetID:           1,
			Title:           "Derby",
			TotalPot:        decimal.NewFromInt(90),
			RewardPerWinner: decimal.NewFromInt(45),
			WinnerIDs:       []int64{2, 3},
			LoserIDs:        []int64{4},
		})

		require.NoError(t, err)
		sender.AssertExpectations(t)
	})

	t.Run("resolution without winners", func(t *testing.T) {
		embed := buildEmbed(events.BetResolvedEvent{Title: "Derby", TotalPot: decimal.NewFromInt(20)})
		require.NotNil(t, embed)
		assert.Equal(t, "Nobody picked the correct option", embed.Description)
	})

	t.Run("wallet events are not posted", func(t *testing.T) {
		sender := new(mockEmbedSender)
		notifier := &DiscordNotifier{session: sender, channelID: "chan-1"}

		require.NoError(t, notifier.Notify(ctx, events.BalanceChangeEvent{UserID: 1}))
		require.NoError(t, notifier.Notify(ctx, events.WithdrawalSettledEvent{UserID: 1}))
		sender.AssertNotCalled(t, "ChannelMessageSendEmbed", mock.Anything, mock.Anything)
	})

	t.Run("send failures are returned to the dispatcher", func(t *testing.T) {
		sender := new(mockEmbedSender)
		notifier := &DiscordNotifier{session: sender, channelID: "chan-1"}
		sender.On("ChannelMessageSendEmbed", "chan-1", mock.Anything).Return(nil, errors.New("rate limited"))

		err := notifier.Notify(ctx, events.BetCreatedEvent{BetID: 1, Title: "Derby", StakeAmount: decimal.NewFromInt(5)})

		assert.ErrorContains(t, err, "rate limited")
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("  short ", 10))
	assert.Equal(t, "abcdefg...", truncate(strings.Repeat("abcdefghij", 3), 10))
}
