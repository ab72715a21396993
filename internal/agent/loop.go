// Package agent runs the conversation loop: it takes inbound channel
// messages through handoff interception, language detection and the
// generation queue, and sends the reply back out the same channel.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/clinichub/clinic-gateway/internal/channel"
	"github.com/clinichub/clinic-gateway/internal/handoff"
	"github.com/clinichub/clinic-gateway/internal/knowledge"
	"github.com/clinichub/clinic-gateway/internal/language"
	"github.com/clinichub/clinic-gateway/internal/metrics"
	"github.com/clinichub/clinic-gateway/internal/queue"
	"github.com/clinichub/clinic-gateway/internal/responder"
	"github.com/clinichub/clinic-gateway/internal/session"
)

var concernTitles = map[string]map[string]string{
	"fever":    {"en": "Fever", "tl": "Lagnat", "ceb": "Hilanat"},
	"headache": {"en": "Headache", "tl": "Sakit ng Ulo", "ceb": "Labad sa Ulo"},
	"cold":     {"en": "Cold / Flu", "tl": "Sipon / Trangkaso", "ceb": "Sipon / Trangkaso"},
	"stomach":  {"en": "Stomach Ache", "tl": "Sakit ng Tiyan", "ceb": "Sakit sa Tiyan"},
	"injury":   {"en": "Injury", "tl": "Sugat / Injury", "ceb": "Samad / Injury"},
}

// concernOrder keeps the concern menu stable across renders.
var concernOrder = []string{"fever", "headache", "cold", "stomach", "injury"}

type Loop struct {
	store         *session.Store
	handoff       *handoff.Manager
	detector      *language.Detector
	queue         *queue.Queue
	pack          *knowledge.Pack
	followupDelay time.Duration
	logger        *slog.Logger
	now           func() time.Time

	mu       sync.RWMutex
	adapters map[string]channel.ChannelAdapter
}

type Option func(*Loop)

// WithNowFunc overrides the clock, for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}

func NewLoop(store *session.Store, hm *handoff.Manager, detector *language.Detector,
	q *queue.Queue, pack *knowledge.Pack, followupDelay time.Duration,
	logger *slog.Logger, opts ...Option) *Loop {
	l := &Loop{
		store:         store,
		handoff:       hm,
		detector:      detector,
		queue:         q,
		pack:          pack,
		followupDelay: followupDelay,
		logger:        logger,
		now:           time.Now,
		adapters:      make(map[string]channel.ChannelAdapter),
	}
	for _, opt := range opts {
		opt(l)
	}
	// When a handoff quiet period lapses, tell the user the bot is back
	// and re-offer the menu.
	hm.OnReactivate(func(userID, lang string) {
		sess, ok := l.store.Get(userID)
		if !ok {
			return
		}
		adapter := l.adapterFor(sess.Channel())
		if adapter == nil {
			return
		}
		l.send(adapter, sess, &channel.Response{Content: l.pack.Reply(knowledge.ReplyReactivated, lang)})
		sess.ArmFollowup(l.now().Add(l.followupDelay))
	})
	return l
}

// Run consumes an adapter's inbound stream until the context ends. Each
// message is processed on its own goroutine so one slow generation does
// not block the channel.
func (l *Loop) Run(ctx context.Context, adapter channel.ChannelAdapter) {
	l.mu.Lock()
	l.adapters[adapter.Name()] = adapter
	l.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-adapter.Incoming():
				if !ok {
					return
				}
				go l.Process(ctx, msg, adapter)
			}
		}
	}()
}

func (l *Loop) adapterFor(name string) channel.ChannelAdapter {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.adapters[name]
}

// Process handles one inbound message end to end.
func (l *Loop) Process(ctx context.Context, msg *channel.Message, adapter channel.ChannelAdapter) {
	sess := l.store.GetOrCreate(msg.UserID, msg.Channel)
	metrics.MessagesReceived.WithLabelValues(msg.Channel).Inc()

	// A human operator owns this conversation. Absorb the message and
	// push the quiet period forward.
	if l.handoff.Intercept(sess) {
		l.logger.Debug("message absorbed, operator active", "user_id", msg.UserID)
		return
	}

	if sess.Ended() {
		sess.Reopen()
	}

	if msg.Postback != "" {
		l.handlePostback(sess, msg.Postback, adapter)
		return
	}
	l.handleText(ctx, sess, msg.Content, adapter)
}

func (l *Loop) handleText(ctx context.Context, sess *session.Session, text string, adapter channel.ChannelAdapter) {
	if detected := l.detector.Detect(text); detected != l.pack.DefaultLanguage {
		sess.SetLanguage(detected)
	}
	lang := sess.Language()

	if l.isFarewell(text) {
		l.send(adapter, sess, &channel.Response{Content: l.pack.Reply(knowledge.ReplyGoodbye, lang)})
		sess.AddTurn(text, l.pack.Reply(knowledge.ReplyGoodbye, lang), l.now())
		sess.EndConversation()
		return
	}

	if l.handoff.Requested(text) {
		l.handoff.EnableSession(sess)
		l.send(adapter, sess, &channel.Response{Content: l.pack.Reply(knowledge.ReplyHandoffAck, lang)})
		return
	}

	// A bare greeting from a fresh session gets the welcome card instead
	// of a generated reply.
	if len(sess.RecentTurns(1)) == 0 && responder.Categorize(text, l.pack) == knowledge.CategoryGreeting {
		reply := l.pack.Reply(knowledge.ReplyWelcome, lang)
		l.send(adapter, sess, &channel.Response{Content: reply, QuickReplies: l.menuQuickReplies(lang)})
		sess.AddTurn(text, reply, l.now())
		return
	}

	adapter.SendTyping(sess.UserID(), true)
	res := <-l.queue.Enqueue(text, sess, lang)
	adapter.SendTyping(sess.UserID(), false)

	reply := res.Text
	if res.Err != nil {
		l.logger.Error("generation failed", "user_id", sess.UserID(), "error", res.Err)
		reply = l.pack.Reply(knowledge.ReplyApology, lang)
	}

	l.send(adapter, sess, &channel.Response{Content: reply})
	sess.AddTurn(text, reply, l.now())
	sess.ArmFollowup(l.now().Add(l.followupDelay))
}

func (l *Loop) handlePostback(sess *session.Session, payload string, adapter channel.ChannelAdapter) {
	lang := sess.Language()
	intent, concern := ParseIntent(payload)

	var resp *channel.Response
	followup := false

	switch intent {
	case IntentGetStarted:
		resp = &channel.Response{
			Content:      l.pack.Reply(knowledge.ReplyWelcome, lang),
			QuickReplies: l.menuQuickReplies(lang),
		}
	case IntentMainMenu:
		resp = &channel.Response{
			Content:      l.pack.Reply(knowledge.ReplyMenuPrompt, lang),
			QuickReplies: l.menuQuickReplies(lang),
		}
	case IntentClinicHours:
		resp = &channel.Response{Content: l.pack.Reply(knowledge.CategoryHours, lang)}
		followup = true
	case IntentAppointment:
		resp = &channel.Response{Content: l.pack.Reply(knowledge.CategoryDoctor, lang)}
		followup = true
	case IntentHealthConcern:
		resp = &channel.Response{
			Content:      l.pack.Reply(knowledge.ReplyConcernMenu, lang),
			QuickReplies: l.concernQuickReplies(lang),
		}
	case IntentConcern:
		advice := l.pack.AdviceFor(concern, lang)
		if advice == "" {
			resp = &channel.Response{
				Content:      l.pack.Reply(knowledge.ReplyConcernMenu, lang),
				QuickReplies: l.concernQuickReplies(lang),
			}
			break
		}
		resp = &channel.Response{Content: advice + "\n\n" + l.pack.Reply(knowledge.ReplyAdviceFooter, lang)}
		followup = true
	case IntentEmergency:
		resp = &channel.Response{Content: l.pack.Reply(knowledge.CategoryEmergency, lang)}
		followup = true
	case IntentContact:
		resp = &channel.Response{Content: l.contactReply(lang)}
		followup = true
	case IntentTalkToAdmin:
		l.handoff.EnableSession(sess)
		resp = &channel.Response{Content: l.pack.Reply(knowledge.ReplyHandoffAck, lang)}
	case IntentUnknown:
		l.logger.Warn("unknown postback payload", "user_id", sess.UserID(), "payload", payload)
		resp = &channel.Response{
			Content:      l.pack.Reply(knowledge.ReplyMenuPrompt, lang),
			QuickReplies: l.menuQuickReplies(lang),
		}
	}

	l.send(adapter, sess, resp)
	sess.AddTurn(payload, resp.Content, l.now())
	if followup {
		sess.ArmFollowup(l.now().Add(l.followupDelay))
	}
}

// FlushFollowups sends the pending delayed menu prompts. Called on a
// short scheduler tick.
func (l *Loop) FlushFollowups() int {
	now := l.now()
	sent := 0
	l.store.ForEach(func(sess *session.Session) {
		if !sess.TakeDueFollowup(now) {
			return
		}
		if sess.InAdminMode() || sess.Ended() {
			return
		}
		adapter := l.adapterFor(sess.Channel())
		if adapter == nil {
			return
		}
		lang := sess.Language()
		l.send(adapter, sess, &channel.Response{
			Content:      l.pack.Reply(knowledge.ReplyMenuPrompt, lang),
			QuickReplies: l.menuQuickReplies(lang),
		})
		sent++
	})
	return sent
}

func (l *Loop) send(adapter channel.ChannelAdapter, sess *session.Session, resp *channel.Response) {
	if err := adapter.SendMessage(sess.UserID(), resp); err != nil {
		l.logger.Error("send failed", "channel", adapter.Name(), "user_id", sess.UserID(), "error", err)
		return
	}
	metrics.MessagesSent.WithLabelValues(adapter.Name()).Inc()
}

func (l *Loop) menuQuickReplies(lang string) []channel.QuickReply {
	qrs := make([]channel.QuickReply, 0, len(l.pack.Menu))
	for _, item := range l.pack.Menu {
		qrs = append(qrs, channel.QuickReply{
			Title:   item.Title(lang, l.pack.DefaultLanguage),
			Payload: item.Payload,
		})
	}
	return qrs
}

func (l *Loop) concernQuickReplies(lang string) []channel.QuickReply {
	qrs := make([]channel.QuickReply, 0, len(concernOrder))
	for _, concern := range concernOrder {
		titles := concernTitles[concern]
		title, ok := titles[lang]
		if !ok {
			title = titles[l.pack.DefaultLanguage]
		}
		qrs = append(qrs, channel.QuickReply{
			Title:   title,
			Payload: concernPrefix + strings.ToUpper(concern),
		})
	}
	return qrs
}

func (l *Loop) contactReply(lang string) string {
	c := l.pack.Clinic
	return fmt.Sprintf("%s\n%s: %s\nEmail: %s",
		l.pack.Reply(knowledge.CategoryLocation, lang), phoneLabel(lang), c.Phone, c.Email)
}

func phoneLabel(lang string) string {
	switch lang {
	case "tl", "ceb":
		return "Telepono"
	default:
		return "Phone"
	}
}

func (l *Loop) isFarewell(text string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range l.pack.FarewellKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}
