package editorcmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-capsulo/internal/commands"
	"github.com/goliatone/go-capsulo/internal/content"
	"github.com/goliatone/go-capsulo/pkg/interfaces"
	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
)

// ErrDocumentMismatch is returned when a command targets a document other
// than the one the session has loaded.
var ErrDocumentMismatch = errors.New("editorcmd: command targets a document that is not loaded")

// Session is the editing session surface the handlers drive.
type Session interface {
	Key() string
	PatchComponentFields(ctx context.Context, componentID string, fields map[string]any) error
	Flush(ctx context.Context) error
	Save(ctx context.Context) (*content.Document, error)
}

func checkKey(session Session, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	if loaded := session.Key(); loaded != key {
		return fmt.Errorf("%w: %s (loaded %s)", ErrDocumentMismatch, key, loaded)
	}
	return nil
}

// PatchComponentFieldsHandler applies patches to the session.
type PatchComponentFieldsHandler struct {
	inner *commands.Handler[PatchComponentFieldsCommand]
}

// NewPatchComponentFieldsHandler constructs the patch handler.
func NewPatchComponentFieldsHandler(session Session, logger interfaces.Logger, opts ...commands.HandlerOption[PatchComponentFieldsCommand]) *PatchComponentFieldsHandler {
	exec := func(ctx context.Context, msg PatchComponentFieldsCommand) error {
		if err := checkKey(session, msg.DocumentKey); err != nil {
			return err
		}
		return session.PatchComponentFields(ctx, msg.ComponentID, msg.Fields)
	}
	handlerOpts := []commands.HandlerOption[PatchComponentFieldsCommand]{
		commands.WithLogger[PatchComponentFieldsCommand](logger),
		commands.WithOperation[PatchComponentFieldsCommand]("editor.patch"),
	}
	return &PatchComponentFieldsHandler{
		inner: commands.NewHandler[PatchComponentFieldsCommand](exec, append(handlerOpts, opts...)...),
	}
}

// Execute satisfies command.Commander[PatchComponentFieldsCommand].Execute.
func (h *PatchComponentFieldsHandler) Execute(ctx context.Context, msg PatchComponentFieldsCommand) error {
	return h.inner.Execute(ctx, msg)
}

// SaveDocumentHandler runs validated saves.
type SaveDocumentHandler struct {
	inner *commands.Handler[SaveDocumentCommand]
}

// NewSaveDocumentHandler constructs the save handler.
func NewSaveDocumentHandler(session Session, logger interfaces.Logger, opts ...commands.HandlerOption[SaveDocumentCommand]) *SaveDocumentHandler {
	exec := func(ctx context.Context, msg SaveDocumentCommand) error {
		if err := checkKey(session, msg.DocumentKey); err != nil {
			return err
		}
		_, err := session.Save(ctx)
		return err
	}
	handlerOpts := []commands.HandlerOption[SaveDocumentCommand]{
		commands.WithLogger[SaveDocumentCommand](logger),
		commands.WithOperation[SaveDocumentCommand]("editor.save"),
	}
	return &SaveDocumentHandler{
		inner: commands.NewHandler[SaveDocumentCommand](exec, append(handlerOpts, opts...)...),
	}
}

// Execute satisfies command.Commander[SaveDocumentCommand].Execute.
func (h *SaveDocumentHandler) Execute(ctx context.Context, msg SaveDocumentCommand) error {
	return h.inner.Execute(ctx, msg)
}

// FlushDraftHandler forces a draft write.
type FlushDraftHandler struct {
	inner *commands.Handler[FlushDraftCommand]
}

// NewFlushDraftHandler constructs the flush handler.
func NewFlushDraftHandler(session Session, logger interfaces.Logger, opts ...commands.HandlerOption[FlushDraftCommand]) *FlushDraftHandler {
	exec := func(ctx context.Context, msg FlushDraftCommand) error {
		if err := checkKey(session, msg.DocumentKey); err != nil {
			return err
		}
		return session.Flush(ctx)
	}
	handlerOpts := []commands.HandlerOption[FlushDraftCommand]{
		commands.WithLogger[FlushDraftCommand](logger),
		commands.WithOperation[FlushDraftCommand]("editor.flush"),
	}
	return &FlushDraftHandler{
		inner: commands.NewHandler[FlushDraftCommand](exec, append(handlerOpts, opts...)...),
	}
}

// Execute satisfies command.Commander[FlushDraftCommand].Execute.
func (h *FlushDraftHandler) Execute(ctx context.Context, msg FlushDraftCommand) error {
	return h.inner.Execute(ctx, msg)
}

type subscription interface {
	Unsubscribe()
}

// Inbox subscribes the editor handlers to the go-command dispatcher so
// collaborators can submit commands with dispatcher.Dispatch.
type Inbox struct {
	subs []subscription
}

// flushRetries bounds dispatcher retries of a failed draft flush.
const flushRetries = 2

// Subscribe registers the patch, save and flush handlers.
func Subscribe(session Session, logger interfaces.Logger) *Inbox {
	inbox := &Inbox{}
	inbox.subs = append(inbox.subs,
		dispatcher.SubscribeCommand(NewPatchComponentFieldsHandler(session, logger)),
		dispatcher.SubscribeCommand(NewSaveDocumentHandler(session, logger)),
		dispatcher.SubscribeCommand(NewFlushDraftHandler(session, logger), runner.WithMaxRetries(flushRetries)),
	)
	return inbox
}

// Close removes every subscription.
func (i *Inbox) Close() {
	for _, sub := range i.subs {
		sub.Unsubscribe()
	}
	i.subs = nil
}
