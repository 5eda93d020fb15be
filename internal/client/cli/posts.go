package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/blogkeeper/internal/client/models"
	"github.com/dmitrijs2005/blogkeeper/internal/common"
)

var errNoSummarizer = errors.New("summarization is not configured")

// idArg takes the post id from the command line or asks for it.
func (a *App) idArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	id, err := a.ask("Post id")
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("%w: post id is required", common.ErrValidation)
	}
	return id, nil
}

func printPostList(w io.Writer, list []*models.Post) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No posts yet")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCREATED")
	for _, p := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Title, p.CreatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

// Posts prints the newest posts of every author. An optional argument
// limits how many.
func (a *App) Posts(ctx context.Context, args []string) error {
	limit := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %q is not a positive number", common.ErrValidation, args[0])
		}
		limit = n
	}
	list, err := a.posts.List(ctx, limit)
	if err != nil {
		return err
	}
	return printPostList(a.out, list)
}

func (a *App) MyPosts(ctx context.Context) error {
	list, err := a.posts.Mine(ctx)
	if err != nil {
		return err
	}
	return printPostList(a.out, list)
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := a.idArg(args)
	if err != nil {
		return err
	}
	p, err := a.posts.Get(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, p.Title)
	if p.SubTitle != "" {
		fmt.Fprintln(a.out, p.SubTitle)
	}
	fmt.Fprintf(a.out, "by %s, %s", p.UserID, p.CreatedAt.Local().Format(time.DateTime))
	if p.UpdatedAt.After(p.CreatedAt) {
		fmt.Fprintf(a.out, " (edited %s)", p.UpdatedAt.Local().Format(time.DateTime))
	}
	fmt.Fprint(a.out, "\n\n")
	fmt.Fprintln(a.out, p.Body)

	if len(p.Reference) > 0 {
		fmt.Fprintf(a.out, "\nReference: %s\n", p.Reference)
	}

	url, err := a.posts.ImageURL(ctx, p)
	if err != nil {
		a.log.Warn(ctx, "image link unavailable", "post_id", p.ID, "error", err)
	} else if url != "" {
		fmt.Fprintf(a.out, "\nImage: %s\n", url)
	}
	return nil
}

// NewPost asks for the post fields and publishes it.
func (a *App) NewPost(ctx context.Context) error {
	if !a.session.IsAuthenticated() {
		return common.ErrNotAuthenticated
	}

	var in models.PostInput
	var err error
	if in.Title, err = a.ask("Title"); err != nil {
		return err
	}
	if in.SubTitle, err = a.ask("Subtitle (optional)"); err != nil {
		return err
	}
	if in.Body, err = getMultiline(a.reader, "Body", a.out); err != nil {
		return err
	}
	if in.Reference, err = a.ask("Reference JSON (optional)"); err != nil {
		return err
	}
	if in.ImagePath, err = a.ask("Image file (optional)"); err != nil {
		return err
	}

	p, err := a.posts.Create(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Post %s published\n", p.ID)
	return nil
}

// EditPost rewrites a post of the current user. Empty answers keep the
// current value.
func (a *App) EditPost(ctx context.Context, args []string) error {
	id, err := a.idArg(args)
	if err != nil {
		return err
	}
	p, err := a.posts.Get(ctx, id)
	if err != nil {
		return err
	}

	in := models.PostInput{
		Title:     p.Title,
		SubTitle:  p.SubTitle,
		Body:      p.Body,
		Reference: string(p.Reference),
	}

	fmt.Fprintf(a.out, "Editing %q\n", p.Title)
	keep := func(prompt string, dst *string) error {
		v, err := a.ask(prompt + " (empty to keep)")
		if err != nil {
			return err
		}
		if v != "" {
			*dst = v
		}
		return nil
	}
	if err := keep("Title", &in.Title); err != nil {
		return err
	}
	if err := keep("Subtitle", &in.SubTitle); err != nil {
		return err
	}
	body, err := getMultiline(a.reader, "Body (empty to keep)", a.out)
	if err != nil {
		return err
	}
	if body != "" {
		in.Body = body
	}
	if err := keep("Reference JSON", &in.Reference); err != nil {
		return err
	}
	if err := keep("Image file", &in.ImagePath); err != nil {
		return err
	}

	if _, err := a.posts.Update(ctx, id, in); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Post updated")
	return nil
}

func (a *App) DelPost(ctx context.Context, args []string) error {
	id, err := a.idArg(args)
	if err != nil {
		return err
	}
	p, err := a.posts.Get(ctx, id)
	if err != nil {
		return err
	}

	answer, err := a.ask(fmt.Sprintf("Delete %q? [y/N]", p.Title))
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	if err := a.posts.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Post deleted")
	return nil
}

// Summarize shortens the body of the given post, or text typed in when no
// id is given. Failures are reported and change nothing else.
func (a *App) Summarize(ctx context.Context, args []string) error {
	if a.summarizer == nil {
		return errNoSummarizer
	}

	var text string
	if len(args) > 0 {
		p, err := a.posts.Get(ctx, args[0])
		if err != nil {
			return err
		}
		text = p.Body
	} else {
		var err error
		if text, err = getMultiline(a.reader, "Text to summarize", a.out); err != nil {
			return err
		}
	}

	summary, err := a.summarizer.Summarize(ctx, text, 0)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, summary)
	return nil
}
