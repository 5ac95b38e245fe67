package handlers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"cloudshare/models"
	"cloudshare/services/cloudshare"
	"cloudshare/utils"
)

// maxParallelRequests bounds multi-id commands.
const maxParallelRequests = 4

func filesCommand(app *App) *cli.Command {
	return &cli.Command{
		Name:  "files",
		Usage: "Upload, list and share files",
		Subcommands: []*cli.Command{
			{
				Name:      "upload",
				Usage:     "Upload files (one credit each)",
				ArgsUsage: "PATH...",
				Action:    app.upload,
			},
			{
				Name:  "list",
				Usage: "List your files",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Filter by name"},
					&cli.StringFlag{Name: "filter", Value: string(cloudshare.VisibilityAll), Usage: "all, public or private"},
				},
				Action: app.listFiles,
			},
			{
				Name:      "public",
				Usage:     "Show a public file",
				ArgsUsage: "ID|LINK",
				Action:    app.publicFile,
			},
			{
				Name:      "download",
				Usage:     "Download a file",
				ArgsUsage: "ID|LINK",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Destination file or directory"},
				},
				Action: app.download,
			},
			{
				Name:      "delete",
				Usage:     "Delete files",
				ArgsUsage: "ID...",
				Action:    app.deleteFiles,
			},
			{
				Name:      "toggle",
				Usage:     "Switch files between public and private",
				ArgsUsage: "ID...",
				Action:    app.toggleFiles,
			},
			{
				Name:      "link",
				Usage:     "Print the share link of a file",
				ArgsUsage: "ID",
				Action:    app.shareLink,
			},
		},
	}
}

func (a *App) upload(c *cli.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if c.NArg() == 0 {
		return cloudshare.ErrNoFiles
	}

	files, closeAll, err := cloudshare.OpenUploads(a.Fs, c.Args().Slice()...)
	if err != nil {
		return err
	}
	defer closeAll()

	result, err := a.Client.Upload(c.Context, files)
	if err != nil {
		if errors.Is(err, cloudshare.ErrInsufficientCredits) {
			return a.report(err, "Insufficient credits. Please buy more credits to upload files.")
		}
		return err
	}

	a.success("Successfully uploaded %d file(s)!", len(result.Files))
	for _, f := range result.Files {
		a.printf("%s\t%s\t%s\n", f.ID, f.Name, utils.FormatFileSize(f.Size))
	}
	if result.RemainingCredits != nil {
		a.printf("Remaining credits: %d\n", result.RemainingCredits.Credits)
	}
	return nil
}

func (a *App) listFiles(c *cli.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	visibility := cloudshare.Visibility(c.String("filter"))
	switch visibility {
	case cloudshare.VisibilityAll, cloudshare.VisibilityPublic, cloudshare.VisibilityPrivate:
	default:
		return fmt.Errorf("unknown filter %q", visibility)
	}

	listing, err := a.Client.MyFiles(c.Context)
	if err != nil {
		return err
	}
	files := cloudshare.FilterFiles(listing.Files, c.String("search"), visibility)

	if len(files) == 0 {
		if len(listing.Files) == 0 {
			a.printf("No files uploaded yet\n")
		} else {
			a.printf("No files match your search\n")
		}
	} else {
		a.printFiles(files)
	}
	if listing.RemainingCredits != nil {
		a.printf("Remaining credits: %d\n", listing.RemainingCredits.Credits)
	}
	return nil
}

func (a *App) printFiles(files []models.FileRecord) {
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tVISIBILITY\tUPLOADED")
	for _, f := range files {
		visibility := "private"
		if f.IsPublic {
			visibility = "public"
		}
		uploaded := ""
		if !f.UploadAt.IsZero() {
			uploaded = f.UploadAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.ID, f.Name, utils.FormatFileSize(f.Size), visibility, uploaded)
	}
	tw.Flush()
}

func (a *App) publicFile(c *cli.Context) error {
	file, err := a.Client.PublicFile(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	a.printf("Name:     %s\n", file.Name)
	a.printf("Type:     %s\n", file.Type)
	a.printf("Size:     %s\n", utils.FormatFileSize(file.Size))
	a.printf("Owner:    %s\n", file.Username)
	if !file.UploadAt.IsZero() {
		a.printf("Uploaded: %s\n", file.UploadAt.Format("2006-01-02 15:04"))
	}
	a.printf("Download: %s\n", a.Client.DownloadURL(file.ID))
	return nil
}

// download writes to a temp file beside the destination and renames it once
// the filename is known from the response.
func (a *App) download(c *cli.Context) error {
	id := c.Args().First()
	output := c.String("output")

	dir := "."
	if output != "" {
		if info, err := a.Fs.Stat(output); err == nil && info.IsDir() {
			dir = output
			output = ""
		} else {
			dir = filepath.Dir(output)
		}
	}

	tmp, err := afero.TempFile(a.Fs, dir, ".cloudshare-download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	dl, err := a.Client.Download(c.Context, id, tmp)
	closeErr := tmp.Close()
	if err != nil {
		a.Fs.Remove(tmpName)
		return err
	}
	if closeErr != nil {
		a.Fs.Remove(tmpName)
		return fmt.Errorf("close download: %w", closeErr)
	}

	dest := output
	if dest == "" {
		dest = filepath.Join(dir, dl.Filename)
	}
	if err := a.Fs.Rename(tmpName, dest); err != nil {
		a.Fs.Remove(tmpName)
		return fmt.Errorf("save download: %w", err)
	}

	a.success("Downloaded %s (%s)", dest, utils.FormatFileSize(dl.Bytes))
	return nil
}

type batchResult struct {
	id   string
	file *models.FileRecord
	err  error
}

// forEachID runs fn for every id through a bounded pool. Requests are
// independent: one failing does not cancel the others.
func (a *App) forEachID(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (*models.FileRecord, error)) ([]batchResult, error) {
	results := make([]batchResult, len(ids))
	p := pool.New().WithMaxGoroutines(maxParallelRequests).WithContext(ctx)
	for i, id := range ids {
		p.Go(func(ctx context.Context) error {
			file, err := fn(ctx, id)
			results[i] = batchResult{id: id, file: file, err: err}
			return err
		})
	}
	return results, p.Wait()
}

func (a *App) deleteFiles(c *cli.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if c.NArg() == 0 {
		return errors.New("at least one file id is required")
	}

	ctx, cancel := context.WithTimeout(c.Context, commandTimeout)
	defer cancel()
	results, err := a.forEachID(ctx, c.Args().Slice(), func(ctx context.Context, id string) (*models.FileRecord, error) {
		return nil, a.Client.DeleteFile(ctx, id)
	})
	for _, r := range results {
		if r.err == nil {
			a.success("File deleted successfully! (%s)", r.id)
		}
	}
	return err
}

func (a *App) toggleFiles(c *cli.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if c.NArg() == 0 {
		return errors.New("at least one file id is required")
	}

	ctx, cancel := context.WithTimeout(c.Context, commandTimeout)
	defer cancel()
	results, err := a.forEachID(ctx, c.Args().Slice(), a.Client.TogglePublic)
	for _, r := range results {
		if r.err != nil || r.file == nil {
			continue
		}
		visibility := "private"
		if r.file.IsPublic {
			visibility = "public"
		}
		a.success("File visibility updated! %s is now %s", r.file.Name, visibility)
		if r.file.IsPublic {
			a.printf("%s\n", a.Client.ShareLink(r.file.ID))
		}
	}
	return err
}

func (a *App) shareLink(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return cloudshare.ErrIDRequired
	}
	a.printf("%s\n", a.Client.ShareLink(id))
	return nil
}
