package shell

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/robertkozin/vidgrab/download"
	"github.com/robertkozin/vidgrab/resolve"
	"github.com/robertkozin/vidgrab/tr"
	"go.opentelemetry.io/otel"
)

var (
	tracer     = otel.Tracer("shell")
	urlPattern = regexp.MustCompile(`https?://\S+`)
)

// Discord replies to messages containing a supported video link with the
// resolved video. With an Executor and PublicURL set it also saves a copy
// and links to it.
type Discord struct {
	id      string
	session *discordgo.Session

	Token     string
	Resolver  resolve.Resolver
	Executor  *download.Executor
	PublicURL string
}

func (b *Discord) Start() error {
	dg, err := discordgo.New("Bot " + b.Token)
	if err != nil {
		return fmt.Errorf("discordgo.New: %w", err)
	}
	b.session = dg

	dg.Identify.Intents = discordgo.IntentGuildMessages | discordgo.IntentDirectMessages | discordgo.IntentMessageContent
	dg.StateEnabled = false

	dg.AddHandler(b.readyHandler)
	dg.AddHandler(b.messageCreateHandler)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("dg.Open: %w", err)
	}
	return nil
}

func (b *Discord) Close() error {
	if b.session == nil {
		return nil
	}
	return b.session.Close()
}

func (b *Discord) readyHandler(s *discordgo.Session, m *discordgo.Ready) {
	b.id = m.User.ID
}

func (b *Discord) messageCreateHandler(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == b.id || m.Author.Bot {
		return
	}

	link := findSupportedURL(m.Content)
	if link == "" {
		return
	}

	go b.replyToMessage(context.Background(), s, m, link)
}

func (b *Discord) replyToMessage(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, link string) {
	var err error
	ctx, span := tracer.Start(ctx, "discord_reply")
	defer tr.End(span, &err)

	d, err := b.Resolver.Resolve(ctx, link)
	if err != nil {
		report(ctx, err)
		_, sendErr := s.ChannelMessageSendReply(m.ChannelID, UserMessage(err), m.Reference())
		if sendErr != nil {
			slog.Error("channel send error reply", "channel_id", m.ChannelID, "url", link, "err", sendErr)
		}
		return
	}

	reply := buildReply(d, b.saveCopy(ctx, d))
	reply.Reference = m.Reference()

	go b.hideEmbeds(m.ChannelID, m.ID)

	if _, err = s.ChannelMessageSendComplex(m.ChannelID, reply); err != nil {
		slog.Error("channel send message", "channel_id", m.ChannelID, "url", link, "err", err)
	}
}

// saveCopy returns a public link to a saved copy of d, or "" when nothing was saved.
func (b *Discord) saveCopy(ctx context.Context, d resolve.Descriptor) string {
	if b.Executor == nil || b.PublicURL == "" {
		return ""
	}

	exec := *b.Executor
	// the reply already links the source url
	exec.Opener = download.OpenerFunc(func(context.Context, string) error { return nil })
	exec.FallbackDelay = 0

	out, err := exec.Download(ctx, d)
	if err != nil || out.Kind != download.Saved {
		return ""
	}
	return PublicLink(b.PublicURL, out.Filename)
}

func (b *Discord) hideEmbeds(channelID, msgID string) {
	_, _ = b.session.RequestWithBucketID("PATCH", discordgo.EndpointChannelMessage(channelID, msgID), map[string]int{"flags": 4}, discordgo.EndpointChannelMessage(channelID, ""))
}

func buildReply(d resolve.Descriptor, savedURL string) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Title:     d.Title,
		URL:       d.DownloadURL,
		Author:    &discordgo.MessageEmbedAuthor{Name: d.Author},
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: d.ThumbnailURL},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Platform", Value: d.Platform.String(), Inline: true},
			{Name: "Duration", Value: d.Duration, Inline: true},
		},
	}

	content := "[Download](<" + d.DownloadURL + ">)"
	if savedURL != "" {
		content = savedURL
	}

	return &discordgo.MessageSend{
		Content: content,
		Embeds:  []*discordgo.MessageEmbed{embed},
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse:       []discordgo.AllowedMentionType{},
			RepliedUser: true,
		},
	}
}

func findSupportedURL(content string) string {
	for _, link := range urlPattern.FindAllString(content, -1) {
		link = strings.TrimRight(link, ">)")
		if resolve.Valid(link) {
			return link
		}
	}
	return ""
}

// PublicLink joins a public base url and a saved file name.
func PublicLink(base, name string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(name, "/")
}
