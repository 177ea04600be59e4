package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"golang.org/x/text/language"

	"github.com/sangnt1552314/vidextract/internal/config"
	"github.com/sangnt1552314/vidextract/internal/gallery"
	"github.com/sangnt1552314/vidextract/internal/logging"
	"github.com/sangnt1552314/vidextract/internal/notify"
	"github.com/sangnt1552314/vidextract/internal/services"
	"github.com/sangnt1552314/vidextract/internal/theme"
)

// sortLanguage derives the collation language from LANG, e.g. "de_DE.UTF-8".
func sortLanguage() language.Tag {
	lang, _, _ := strings.Cut(os.Getenv("LANG"), ".")
	if lang == "" || lang == "C" || lang == "POSIX" {
		return language.Und
	}
	tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return language.Und
	}
	return tag
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Setup logging
	logger, logFile, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logFile.Close()

	logger.Info("starting", "api_url", cfg.APIURL, "download_dir", cfg.DownloadDir)

	themes := theme.Load(cfg.ThemeFile, os.Getenv)
	notices := notify.NewCenter(50)

	// Initialize app
	app := NewApp(
		logger,
		gallery.NewSession(sortLanguage()),
		services.NewExtractor(cfg.APIURL, cfg.RequestTimeout),
		services.NewDownloader(cfg.APIURL, cfg.DownloadDir, cfg.DownloadTimeout),
		services.NewOpener(),
		notices,
		themes,
	)

	// Setup signal handling for cleanup
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		sig := <-c
		logger.Info("received signal, shutting down", slog.String("signal", sig.String()))
		app.app.Stop()
	}()

	// Ctrl+C always quits; 'q' quits unless the user is typing
	app.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			app.app.Stop()
			return nil
		}
		if event.Rune() == 'q' && app.app.GetFocus() != app.url_input {
			app.app.Stop()
			return nil
		}
		return event
	})

	// Containers
	main_box := tview.NewFlex()
	main_box.SetDirection(tview.FlexRow)
	main_box.SetFullScreen(true)

	flex_box := tview.NewFlex().SetDirection(tview.FlexColumn)

	// Header box: url input and sort control
	header_box := tview.NewFlex().SetDirection(tview.FlexColumn)

	app.url_input.SetBorder(true)
	app.url_input.SetTitle("Extract Videos")
	app.url_input.SetTitleAlign(tview.AlignLeft)
	app.url_input.SetPlaceholder("Paste webpage URL here, or file:/path/to/page.html")
	app.url_input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			app.performExtract(app.url_input.GetText())
		case tcell.KeyTab:
			app.app.SetFocus(app.sort_select)
		}
	})

	labels := make([]string, len(gallery.SortOptions))
	for i, opt := range gallery.SortOptions {
		labels[i] = opt.Label
	}
	app.sort_select.SetBorder(true)
	app.sort_select.SetTitle("Sort")
	app.sort_select.SetTitleAlign(tview.AlignLeft)
	app.sort_select.SetLabel("Sort by: ")
	app.sort_select.SetOptions(labels, func(text string, index int) {
		if index < 0 || index >= len(gallery.SortOptions) {
			return
		}
		app.session.SetSort(gallery.SortOptions[index].Key)
		app.renderVideos()
	})
	app.sort_select.SetCurrentOption(0)
	app.sort_select.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyTab || key == tcell.KeyEscape {
			app.app.SetFocus(app.video_list)
		}
	})

	header_box.AddItem(app.url_input, 0, 3, true)
	header_box.AddItem(app.sort_select, 0, 1, false)

	// Container - Video box
	app.video_box.SetDirection(tview.FlexRow)
	app.video_box.SetBorder(true)
	app.video_box.SetTitle(" Videos ")
	app.video_box.SetTitleAlign(tview.AlignLeft)
	app.video_box.AddItem(app.video_list, 0, 1, true)

	app.video_list.SetSelectable(true, false) // Enable row selection
	app.video_list.SetSelectedFunc(func(row, column int) {
		if video, ok := app.selectedVideo(); ok {
			app.downloadVideo(video)
		}
	})
	app.video_list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyTab:
			app.app.SetFocus(app.url_input)
			return nil
		case event.Rune() == 'o':
			if video, ok := app.selectedVideo(); ok {
				app.openSource(video)
			}
			return nil
		case event.Rune() == 't':
			app.toggleTheme()
			return nil
		case event.Rune() == '/':
			app.app.SetFocus(app.url_input)
			return nil
		}
		return event
	})

	// Menu
	app.menu.AddItem("Extract", "", 'e', func() {
		app.app.SetFocus(app.url_input)
	})
	app.menu.AddItem("Theme: "+string(themes.Theme()), "", 't', app.toggleTheme)
	app.menu.AddItem("Exit", "", 'q', func() {
		app.app.Stop()
	})
	app.menu.SetBorder(true).SetTitle("Menu")
	app.menu.SetTitleAlign(tview.AlignLeft)

	// Status Box
	app.status_box.SetBorder(true)
	app.status_box.SetTitle("Status")
	app.status_box.SetTitleAlign(tview.AlignLeft)
	app.status_box.SetDynamicColors(true)
	app.status_box.SetText("Ready")

	app.help_box.SetText(" Enter: extract / download   o: open source   t: theme   Tab: switch focus   q: quit")

	// Notices and theme changes arrive from any goroutine
	notices.Subscribe(func(notify.Notice) {
		go app.app.QueueUpdateDraw(app.renderStatus)
	})
	themes.Subscribe(func(t theme.Theme) {
		go app.app.QueueUpdateDraw(func() { app.applyTheme(t) })
	})

	// Setup layout
	flex_box.AddItem(app.menu, 0, 1, false)
	flex_box.AddItem(app.video_box, 0, 5, false)

	main_box.AddItem(header_box, 3, 0, true)
	main_box.AddItem(flex_box, 0, 1, false)
	main_box.AddItem(app.status_box, statusLines+2, 0, false)
	main_box.AddItem(app.help_box, 1, 0, false)

	app.applyTheme(themes.Theme())

	if err := app.app.
		SetRoot(main_box, true).
		EnableMouse(true).
		Run(); err != nil {
		logger.Error("ui stopped", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
