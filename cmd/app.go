package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/sangnt1552314/vidextract/internal/gallery"
	"github.com/sangnt1552314/vidextract/internal/logging"
	"github.com/sangnt1552314/vidextract/internal/models"
	"github.com/sangnt1552314/vidextract/internal/notify"
	"github.com/sangnt1552314/vidextract/internal/services"
	"github.com/sangnt1552314/vidextract/internal/theme"
)

const statusLines = 4

type App struct {
	app         *tview.Application
	video_list  *tview.Table
	video_box   *tview.Flex
	url_input   *tview.InputField
	sort_select *tview.DropDown
	status_box  *tview.TextView
	menu        *tview.List
	help_box    *tview.TextView

	logger     *slog.Logger
	session    *gallery.Session
	extractor  *services.Extractor
	downloader *services.Downloader
	opener     *services.Opener
	notices    *notify.Center
	themes     *theme.Store
}

type palette struct {
	background tcell.Color
	field      tcell.Color
	text       tcell.Color
	muted      tcell.Color
	border     tcell.Color
	title      tcell.Color
	header     tcell.Color
	selected   tcell.Color
}

var palettes = map[theme.Theme]palette{
	theme.Dark: {
		background: tcell.ColorBlack,
		field:      tcell.ColorNone,
		text:       tcell.ColorWhite,
		muted:      tcell.ColorGray,
		border:     tcell.ColorWhite,
		title:      tcell.ColorWhite,
		header:     tcell.ColorYellow,
		selected:   tcell.ColorDarkCyan,
	},
	theme.Light: {
		background: tcell.ColorWhite,
		field:      tcell.ColorLightGray,
		text:       tcell.ColorBlack,
		muted:      tcell.ColorDimGray,
		border:     tcell.ColorDarkSlateGray,
		title:      tcell.ColorNavy,
		header:     tcell.ColorDarkGoldenrod,
		selected:   tcell.ColorLightSkyBlue,
	},
}

func NewApp(logger *slog.Logger, session *gallery.Session, extractor *services.Extractor,
	downloader *services.Downloader, opener *services.Opener, notices *notify.Center, themes *theme.Store) *App {
	return &App{
		app:         tview.NewApplication(),
		video_list:  tview.NewTable(),
		video_box:   tview.NewFlex(),
		url_input:   tview.NewInputField(),
		sort_select: tview.NewDropDown(),
		status_box:  tview.NewTextView(),
		menu:        tview.NewList(),
		help_box:    tview.NewTextView(),
		logger:      logger,
		session:     session,
		extractor:   extractor,
		downloader:  downloader,
		opener:      opener,
		notices:     notices,
		themes:      themes,
	}
}

func (app *App) setVideoTableHeader(p palette) {
	headers := []struct {
		label string
		width int
	}{
		{"Title", 40},
		{"Resolution", 10},
		{"Size", 10},
		{"Format", 6},
		{"Duration", 8},
	}
	for col, h := range headers {
		app.video_list.SetCell(0, col, tview.NewTableCell(h.label).
			SetMaxWidth(h.width).
			SetSelectable(false).
			SetTextColor(p.header).
			SetAttributes(tcell.AttrBold))
	}

	// Fix header row
	app.video_list.SetFixed(1, 0)
}

// renderVideos redraws the gallery from the session. Must run on the UI goroutine.
func (app *App) renderVideos() {
	p := palettes[app.themes.Theme()]

	app.video_list.Clear()
	app.setVideoTableHeader(p)

	if app.session.Loading() {
		app.video_box.SetTitle(" Videos ")
		app.video_list.SetCell(1, 0, tview.NewTableCell("Extracting videos from page...").
			SetSelectable(false).SetTextColor(p.text))
		app.video_list.SetCell(2, 0, tview.NewTableCell("This may take a moment").
			SetSelectable(false).SetTextColor(p.muted))
		return
	}

	videos := app.session.View()
	if len(videos) == 0 {
		app.video_box.SetTitle(" Videos ")
		app.video_list.SetCell(1, 0, tview.NewTableCell("No videos found yet").
			SetSelectable(false).SetTextColor(p.text))
		app.video_list.SetCell(2, 0, tview.NewTableCell("Enter a URL above to extract videos").
			SetSelectable(false).SetTextColor(p.muted))
		return
	}

	app.video_box.SetTitle(" " + resultTitle(len(videos)) + " ")
	for i, video := range videos {
		video := video
		row := i + 1
		app.video_list.SetCell(row, 0, tview.NewTableCell(video.Title).
			SetReference(&video).SetTextColor(p.text).SetExpansion(1))
		app.video_list.SetCell(row, 1, tview.NewTableCell(models.Label(video.Resolution)).SetTextColor(p.muted))
		app.video_list.SetCell(row, 2, tview.NewTableCell(models.Label(video.FileSize)).SetTextColor(p.muted))
		app.video_list.SetCell(row, 3, tview.NewTableCell(models.Label(video.Format)).SetTextColor(p.muted))
		app.video_list.SetCell(row, 4, tview.NewTableCell(durationLabel(video.Duration)).SetTextColor(p.muted))
	}
	app.video_list.Select(1, 0)
}

func resultTitle(n int) string {
	if n == 1 {
		return "1 Video Found"
	}
	return fmt.Sprintf("%d Videos Found", n)
}

func durationLabel(seconds *float64) string {
	if seconds == nil {
		return ""
	}
	return formatDuration(time.Duration(*seconds * float64(time.Second)))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// renderStatus shows the newest notices, most recent on top.
func (app *App) renderStatus() {
	var b strings.Builder
	for _, n := range app.notices.Recent(statusLines) {
		icon := "[yellow]…"
		switch n.State {
		case notify.StateSuccess:
			icon = "[green]✔"
		case notify.StateFailure:
			icon = "[red]✖"
		}
		fmt.Fprintf(&b, "%s[-] %s", icon, tview.Escape(n.Title))
		if n.Detail != "" {
			fmt.Fprintf(&b, ": %s", tview.Escape(n.Detail))
		}
		b.WriteString("\n")
	}
	app.status_box.SetText(b.String())
}

// performExtract validates the input, then runs the extraction off the UI
// goroutine. Only the newest request may change the gallery.
func (app *App) performExtract(input string) {
	mode, target := parseInput(input)

	switch mode {
	case modeFile:
		if err := services.CheckHTMLFile(target); err != nil {
			app.reportError(err)
			return
		}
		app.notices.Info("File received", "Processing "+filepath.Base(target))
	default:
		normalized, err := services.NormalizeURL(target)
		if err != nil {
			app.reportError(err)
			return
		}
		target = normalized
		app.url_input.SetText(normalized)
	}

	ticket := app.session.Begin()
	app.renderVideos()

	go func() {
		logger := app.logger.With(slog.Uint64("ticket", uint64(ticket)))
		ctx := logging.WithLogger(context.Background(), logger)

		var (
			videos []models.Video
			err    error
		)
		if mode == modeFile {
			videos, err = app.extractor.ExtractFile(ctx, target)
		} else {
			videos, err = app.extractor.ExtractURL(ctx, target)
		}

		app.app.QueueUpdateDraw(func() {
			if err != nil {
				if !app.session.Fail(ticket) {
					logger.Info("dropping stale extraction failure", "error", err)
					return
				}
				app.reportError(err)
				app.renderVideos()
				return
			}
			if !app.session.Complete(ticket, videos) {
				logger.Info("dropping stale extraction result", "videos", len(videos))
				return
			}
			app.renderVideos()
			app.app.SetFocus(app.video_list)
		})
	}()
}

func (app *App) selectedVideo() (models.Video, bool) {
	row, _ := app.video_list.GetSelection()
	if row <= 0 {
		return models.Video{}, false
	}
	video, ok := app.video_list.GetCell(row, 0).GetReference().(*models.Video)
	if !ok || video == nil {
		return models.Video{}, false
	}
	return *video, true
}

func (app *App) downloadVideo(video models.Video) {
	go func() {
		logger := app.logger.With(slog.String("video_id", video.ID))
		ctx := logging.WithLogger(context.Background(), logger)
		if _, err := app.downloader.DownloadNotified(ctx, app.notices, video); err != nil {
			logger.Error("download failed", "error", err)
		}
	}()
}

func (app *App) openSource(video models.Video) {
	if err := app.opener.OpenSource(video); err != nil {
		app.logger.Error("open source failed", "error", err)
		app.notices.Error("Could not open source page", err.Error())
	}
}

func (app *App) toggleTheme() {
	if err := app.themes.Toggle(); err != nil {
		app.logger.Error("persist theme failed", "error", err)
		app.notices.Error("Theme not saved", err.Error())
	}
}

// reportError turns an error into a notice. Must run on the UI goroutine.
func (app *App) reportError(err error) {
	var (
		verr *services.ValidationError
		xerr *services.ExtractionError
	)
	switch {
	case errors.Is(err, services.ErrEmptyURL):
		app.notices.Error("URL is required", "Please enter a valid webpage URL")
	case errors.Is(err, services.ErrNotHTML):
		app.notices.Error("Invalid file type", "Please upload an HTML file")
	case errors.Is(err, services.ErrFileTooLarge):
		app.notices.Error("File too large", "HTML uploads are limited to 10 MB")
	case errors.As(err, &verr):
		app.notices.Error("Invalid input", verr.Error())
	case errors.As(err, &xerr):
		app.logger.Error("extraction failed", "error", err)
		app.notices.Error("Extraction failed", xerr.Error())
	default:
		app.logger.Error("unexpected error", "error", err)
		app.notices.Error("Something went wrong", err.Error())
	}
}

// applyTheme recolours every primitive. Must run on the UI goroutine.
func (app *App) applyTheme(t theme.Theme) {
	p := palettes[t]

	tview.Styles.PrimitiveBackgroundColor = p.background
	tview.Styles.ContrastBackgroundColor = p.field
	tview.Styles.BorderColor = p.border
	tview.Styles.TitleColor = p.title
	tview.Styles.PrimaryTextColor = p.text
	tview.Styles.SecondaryTextColor = p.header
	tview.Styles.TertiaryTextColor = p.muted

	for _, box := range []*tview.Box{
		app.video_list.Box, app.video_box.Box, app.url_input.Box, app.sort_select.Box,
		app.status_box.Box, app.menu.Box, app.help_box.Box,
	} {
		box.SetBackgroundColor(p.background)
		box.SetBorderColor(p.border)
		box.SetTitleColor(p.title)
	}
	app.status_box.SetBackgroundColor(p.background)
	app.help_box.SetBackgroundColor(p.background)

	app.url_input.SetFieldBackgroundColor(p.field)
	app.url_input.SetFieldTextColor(p.text)
	app.url_input.SetPlaceholderTextColor(p.muted)
	app.url_input.SetLabelColor(p.header)
	app.sort_select.SetFieldBackgroundColor(p.field)
	app.sort_select.SetFieldTextColor(p.text)
	app.sort_select.SetLabelColor(p.header)
	app.status_box.SetTextColor(p.text)
	app.help_box.SetTextColor(p.muted)
	app.menu.SetMainTextColor(p.text)
	app.menu.SetShortcutColor(p.header)
	app.menu.SetSelectedBackgroundColor(p.selected)
	app.video_list.SetSelectedStyle(tcell.StyleDefault.Background(p.selected).Foreground(p.text))

	app.menu.SetItemText(1, "Theme: "+string(t), "")
	app.renderVideos()
}

type inputMode int

const (
	modeURL inputMode = iota
	modeFile
)

// parseInput decides between URL and file mode. "file:<path>" is always a
// file; so is an existing local path ending in .html or .htm.
func parseInput(input string) (inputMode, string) {
	text := strings.TrimSpace(input)
	if rest, ok := strings.CutPrefix(text, "file:"); ok {
		rest = strings.TrimPrefix(rest, "//")
		return modeFile, rest
	}

	lower := strings.ToLower(text)
	if strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm") {
		if info, err := os.Stat(text); err == nil && !info.IsDir() {
			return modeFile, text
		}
	}
	return modeURL, text
}
