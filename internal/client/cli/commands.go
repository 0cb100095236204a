package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/sabo/internal/client/models"
	"github.com/dmitrijs2005/sabo/internal/client/query"
	"github.com/dmitrijs2005/sabo/internal/client/services"
)

const reviewDateLayout = "2006-01-02"

func (a *App) Capture(ctx context.Context, text string) error {
	it, err := a.items.Capture(ctx, text)
	if err != nil {
		return fmt.Errorf("save failed: %w", err)
	}
	fmt.Fprintln(a.out, "Saved", formatItem(it))
	return nil
}

func (a *App) Next(ctx context.Context) error {
	it, ok, err := a.items.Next(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Nothing to do.")
		return nil
	}
	fmt.Fprintln(a.out, formatCard(it))
	return nil
}

// List prints items matching an optional preset (all, tasks, done) and an
// optional search phrase made of the remaining arguments.
func (a *App) List(ctx context.Context, args []string) error {
	f := query.All
	if len(args) > 0 {
		switch args[0] {
		case "all":
			args = args[1:]
		case "tasks":
			f, args = query.Tasks, args[1:]
		case "done":
			f, args = query.Done, args[1:]
		}
	}
	f.Search = strings.Join(args, " ")

	list, err := a.items.List(ctx, f)
	if err != nil {
		return err
	}
	counts, err := a.items.Counts(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "all %d | tasks %d | done %d\n", counts.All, counts.Tasks, counts.Done)
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No items.")
		return nil
	}
	for _, it := range list {
		fmt.Fprintln(a.out, formatItem(it))
	}
	return nil
}

func (a *App) Mark(ctx context.Context, action, ref string) error {
	var (
		it    models.Item
		err   error
		label string
	)
	switch action {
	case "done":
		it, err = a.items.Complete(ctx, ref)
		label = "Done"
	case "undo":
		it, err = a.items.Uncomplete(ctx, ref)
		label = "Reopened"
	case "defer":
		it, err = a.items.Defer(ctx, ref)
		label = "Deferred"
	case "today":
		it, err = a.items.SetToday(ctx, ref)
		label = "Moved to today"
	case "delete":
		it, err = a.items.Delete(ctx, ref)
		label = "Deleted"
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, label+":", formatItem(it))
	return nil
}

func (a *App) SetScope(ctx context.Context, ref, scope string) error {
	s := models.Scope(scope)
	if !s.Valid() {
		return fmt.Errorf("unknown scope %q", scope)
	}
	it, err := a.items.SetScope(ctx, ref, s)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Updated:", formatItem(it))
	return nil
}

// Review prints the items completed on date (local time, YYYY-MM-DD) and a
// per-category count. An empty date means today.
func (a *App) Review(ctx context.Context, date string) error {
	day := a.now()
	if date != "" {
		parsed, err := time.ParseInLocation(reviewDateLayout, date, time.Local)
		if err != nil {
			return fmt.Errorf("bad date %q, want %s", date, reviewDateLayout)
		}
		day = parsed
	}

	done, stats, err := a.items.Review(ctx, day)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: %d completed\n", day.Format(reviewDateLayout), stats.Total)
	for _, c := range models.Categories {
		if n := stats.ByCategory[c]; n > 0 {
			fmt.Fprintf(a.out, "  %-7s %d\n", c, n)
		}
	}
	for _, it := range done {
		fmt.Fprintln(a.out, formatItem(it))
	}
	return nil
}

func (a *App) Key(ctx context.Context, args []string) error {
	sub := "status"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "set":
		key, err := GetSecret("Gemini API key", a.out)
		if err != nil {
			return err
		}
		if key == "" {
			return fmt.Errorf("empty key")
		}
		if err := a.keys.Save(ctx, key); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "API key saved.")
	case "clear":
		if err := a.keys.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Saved API key removed.")
	case "status":
		switch a.keys.Source(ctx) {
		case services.KeySourceSaved:
			fmt.Fprintf(a.out, "AI classification on (saved key, model %s).\n", a.aiModel(ctx))
		case services.KeySourceEnv:
			fmt.Fprintf(a.out, "AI classification on (environment key, model %s).\n", a.aiModel(ctx))
		default:
			fmt.Fprintln(a.out, "AI classification off, using rules.")
		}
	default:
		return fmt.Errorf("usage: key set|clear|status")
	}
	return nil
}

func (a *App) SignIn(ctx context.Context, token string) error {
	if token == "" {
		var err error
		if token, err = GetSecret("Access token", a.out); err != nil {
			return err
		}
	}
	userID, err := a.auth.SignIn(ctx, token)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed in as", userID)
	return nil
}

func (a *App) SignOut(ctx context.Context) error {
	if err := a.auth.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out. Items stay on this device.")
	return nil
}

func (a *App) Sync(ctx context.Context) error {
	merged, err := a.sync.SyncNow(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	fmt.Fprintf(a.out, "Synced %d items.\n", len(merged))
	if at := a.sync.LastPushAt(); !at.IsZero() {
		fmt.Fprintln(a.out, "Mirror updated", at.In(time.Local).Format("2006-01-02 15:04:05"))
	}
	return nil
}

func (a *App) aiModel(ctx context.Context) string {
	if a.analyzer == nil {
		return "default"
	}
	key, err := a.keys.APIKey(ctx)
	if err != nil {
		return "default"
	}
	return a.analyzer.Model(key)
}

// ClearAll deletes every item after the user types "yes".
func (a *App) ClearAll(ctx context.Context) error {
	fmt.Fprintln(a.out, "Delete every item? Type 'yes' to confirm.")
	if a.in == nil || !a.in.Scan() || strings.TrimSpace(a.in.Text()) != "yes" {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}
	if err := a.items.ClearAll(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "All items deleted.")
	return nil
}
