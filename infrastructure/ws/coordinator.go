package ws

import (
	"casechat/auth"
	"casechat/contract"
	"casechat/domain"
	"casechat/errors"
	"casechat/services"
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Coordinator resolves every inbound frame to the authenticated session
// and dispatches it to the right service. It is the only place that
// touches both the transport and the registry.
type Coordinator struct {
	log        *slog.Logger
	registry   contract.IRegistry
	router     services.IMessageRouter
	typing     *services.TypingIndicator
	receipts   *services.ReadReceipts
	presence   *services.PresenceBroadcaster
	bufferSize int
}

func NewCoordinator(log *slog.Logger, registry contract.IRegistry,
	router services.IMessageRouter, typing *services.TypingIndicator,
	receipts *services.ReadReceipts, presence *services.PresenceBroadcaster,
	bufferSize int) *Coordinator {
	return &Coordinator{
		log:        log,
		registry:   registry,
		router:     router,
		typing:     typing,
		receipts:   receipts,
		presence:   presence,
		bufferSize: bufferSize,
	}
}

// HandleConnection runs one session from registration to teardown. The
// caller guarantees claims were verified before upgrade; an unverified
// connection never reaches this method.
func (c *Coordinator) HandleConnection(conn *websocket.Conn, claims *auth.IdentityClaims) {
	session := domain.Session{
		ID:          uuid.NewString(),
		UserID:      claims.UserID,
		Role:        claims.Role,
		DisplayName: claims.DisplayName,
		ConnectedAt: time.Now().UTC(),
	}
	sink := NewChannelSink(c.bufferSize)

	c.registry.Register(session, sink)
	c.presence.Connected(session)
	c.log.Info("Session connected",
		"session_id", session.ID, "user_id", session.UserID, "role", session.Role)

	defer func() {
		if _, ok := c.registry.Unregister(session.ID); ok {
			c.presence.Disconnected(session)
		}
		c.log.Info("Session disconnected",
			"session_id", session.ID, "user_id", session.UserID)
	}()

	connCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Single writer goroutine: everything leaving this connection goes
	// through the sink channel, so frames never interleave.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-connCtx.Done():
				return
			case evt := <-sink.Events:
				if err := conn.WriteJSON(Encode(evt)); err != nil {
					c.log.Debug("Write failed, closing session",
						"session_id", session.ID, "error", err)
					return
				}
			}
		}
	}()

	for {
		var frame InboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			break
		}
		cmd, err := Decode(frame, session)
		if err != nil {
			c.log.Debug("Rejected inbound frame",
				"session_id", session.ID, "error", err)
			continue
		}
		c.dispatch(connCtx, session, sink, cmd)
	}

	cancel()
	<-writerDone
}

// dispatch is the single switch over the closed command set. Send and
// mark-read run on a context detached from the connection: once accepted,
// persistence completes or fails on its own terms, even if the sender
// disconnects mid-flight.
func (c *Coordinator) dispatch(connCtx context.Context, session domain.Session,
	sink *ChannelSink, cmd domain.Command) {
	sender := domain.User{
		ID:          session.UserID,
		Role:        session.Role,
		DisplayName: session.DisplayName,
	}

	switch cmd := cmd.(type) {
	case domain.SendMessageCommand:
		opCtx := context.WithoutCancel(connCtx)
		routed, err := c.router.Send(opCtx, sender, cmd.ReceiverID, cmd.Content)
		if err != nil {
			c.pushError(connCtx, sink, err)
			return
		}
		// Echo to the originating session only; the sender's other
		// sessions learn about it like any receiver would, on reload.
		_ = sink.Consume(connCtx, eventMessageSent(routed))

	case domain.TypingCommand:
		if cmd.IsTyping {
			c.typing.StartTyping(connCtx, session, cmd.ToUserID)
		} else {
			c.typing.StopTyping(connCtx, session, cmd.ToUserID)
		}

	case domain.MarkReadCommand:
		opCtx := context.WithoutCancel(connCtx)
		if err := c.receipts.MarkRead(opCtx, sender, cmd.CounterpartyID); err != nil {
			c.log.Warn("Mark-read failed",
				"reader", sender.ID, "counterparty", cmd.CounterpartyID, "error", err)
			c.pushError(connCtx, sink, err)
		}
	}
}

// pushError delivers exactly one message_error per failed attempt.
func (c *Coordinator) pushError(ctx context.Context, sink *ChannelSink, err error) {
	evt := eventMessageError(errors.Kind(err), err.Error())
	if consumeErr := sink.Consume(ctx, evt); consumeErr != nil {
		c.log.Warn("Could not deliver message_error", "error", consumeErr)
	}
}
