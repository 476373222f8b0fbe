//go:build gui

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/metcalfc/limn/internal/acquire"
	"github.com/metcalfc/limn/internal/document"
	"github.com/metcalfc/limn/internal/illustrate"
	"github.com/metcalfc/limn/internal/view"
)

// reader is the window state. Every method runs on the fyne main goroutine.
type reader struct {
	app     *app
	ctx     context.Context
	win     fyne.Window
	orch    *illustrate.Orchestrator
	tracker *view.Tracker
	book    *book

	title    *widget.Label
	byline   *widget.Label
	status   *widget.Label
	blocks   *fyne.Container
	labels   []*widget.Label
	contents []document.Entry
	toc      *fyne.Container
	tocList  *widget.List
	scroll   *container.Scroll
	picture  *canvas.Image
	progress *widget.ProgressBarInfinite

	shownRef    string
	contentSize fyne.Size
	viewSize    fyne.Size
}

func newReader(ctx context.Context, a *app, w fyne.Window) *reader {
	r := &reader{
		app:     a,
		ctx:     ctx,
		win:     w,
		orch:    illustrate.New(ctx, a.service, a.cfg.Orchestrator(), a.logger),
		tracker: view.NewTracker(nil),
		title:   widget.NewLabel("limn"),
		byline:  widget.NewLabel(""),
		status:  widget.NewLabel(""),
		blocks:  container.NewVBox(),
		picture: canvas.NewImageFromImage(nil),
	}
	r.title.TextStyle.Bold = true
	r.byline.TextStyle.Italic = true
	r.status.Truncation = fyne.TextTruncateEllipsis

	r.scroll = container.NewVScroll(r.blocks)
	r.scroll.OnScrolled = func(p fyne.Position) {
		r.tracker.SetWindow(float64(p.Y), float64(r.scroll.Size().Height))
		r.dispatch(r.orch.Scrolled())
	}

	r.tocList = widget.NewList(
		func() int { return len(r.contents) },
		func() fyne.CanvasObject {
			return container.NewVBox(widget.NewLabel("Title"), widget.NewLabel("Preview"))
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			entry := r.contents[id]
			vbox := obj.(*fyne.Container)
			title := vbox.Objects[0].(*widget.Label)
			preview := vbox.Objects[1].(*widget.Label)

			indent := strings.Repeat("  ", entry.Level)
			title.TextStyle.Bold = true
			title.SetText(indent + entry.Title)
			preview.SetText(indent + entry.Preview)
		},
	)
	r.tocList.OnSelected = func(id widget.ListItemID) {
		if id < len(r.contents) {
			r.jumpTo(r.contents[id].Block)
		}
	}
	r.toc = container.NewBorder(widget.NewLabel("Contents"), widget.NewLabel("T to close"), nil, nil, r.tocList)
	r.toc.Hide()

	r.picture.FillMode = canvas.ImageFillContain
	r.picture.SetMinSize(fyne.NewSize(280, 280))
	r.progress = widget.NewProgressBarInfinite()
	r.progress.Hide()
	return r
}

func (r *reader) content() fyne.CanvasObject {
	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), r.askOpen),
		widget.NewToolbarAction(theme.ContentPasteIcon(), r.pasteClipboard),
	)
	header := container.NewBorder(nil, nil, nil, toolbar, container.NewVBox(r.title, r.byline))

	reading := container.NewBorder(nil, nil, r.toc, nil, r.scroll)
	panel := container.NewBorder(widget.NewLabel("Illustration"), r.progress, nil, nil, r.picture)
	split := container.NewHSplit(reading, panel)
	split.Offset = 0.62

	return container.NewBorder(header, r.status, nil, nil, split)
}

// dispatch runs cmd off the main goroutine and delivers its message back.
func (r *reader) dispatch(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	go func() {
		msg := cmd()
		fyne.Do(func() { r.deliver(msg) })
	}()
}

func (r *reader) deliver(msg tea.Msg) {
	switch msg := msg.(type) {
	case nil:
		return
	case tea.BatchMsg:
		for _, cmd := range msg {
			r.dispatch(cmd)
		}
		return
	}
	r.dispatch(r.orch.Update(msg))
	r.refreshIllustration()
}

func (r *reader) refreshIllustration() {
	if r.orch.Loading() {
		r.progress.Show()
		r.progress.Start()
	} else {
		r.progress.Stop()
		r.progress.Hide()
	}

	ill, ok := r.orch.Illustration()
	switch {
	case !ok && r.shownRef != "":
		r.picture.Image = nil
		r.shownRef = ""
		r.picture.Refresh()
	case ok && ill.Ref != r.shownRef:
		r.picture.Image = ill.Image
		r.shownRef = ill.Ref
		r.picture.Refresh()
	}
}

func (r *reader) open(locator string) {
	r.status.SetText("Loading " + locator + "...")
	go func() {
		res := r.app.load(r.ctx, locator)
		fyne.Do(func() { r.loaded(res) })
	}()
}

func (r *reader) loaded(res loadResult) {
	switch {
	case res.err != nil:
		r.status.SetText("Error: " + res.err.Error())
		dialog.ShowError(res.err, r.win)
	case res.manual:
		r.status.SetText("Could not fetch " + res.target.url)
		r.askManual(res.target, "", fmt.Sprintf("Could not fetch %s (%v).\nPaste the book text instead.", res.target.url, res.cause))
	default:
		r.status.SetText("")
		r.showBook(res.book)
	}
}

func (r *reader) askManual(t target, text, note string) {
	entry := widget.NewMultiLineEntry()
	entry.Wrapping = fyne.TextWrapWord
	entry.SetPlaceHolder("Paste the book text here")
	entry.SetText(text)

	msg := widget.NewLabel(note)
	msg.Wrapping = fyne.TextWrapWord

	top := fyne.CanvasObject(msg)
	if u, err := t.browseURL(); err == nil {
		browse := widget.NewButtonWithIcon("Open in browser", theme.ComputerIcon(), func() {
			if err := fyne.CurrentApp().OpenURL(u); err != nil {
				dialog.ShowError(err, r.win)
			}
		})
		top = container.NewVBox(msg, container.NewHBox(browse))
	}

	d := dialog.NewCustomConfirm("Paste book text", "Read", "Cancel",
		container.NewBorder(top, nil, nil, nil, entry),
		func(ok bool) {
			if !ok {
				return
			}
			b, err := r.app.submitManual(entry.Text, t)
			if err != nil {
				n := utf8.RuneCountInString(strings.TrimSpace(entry.Text))
				r.askManual(t, entry.Text, fmt.Sprintf("Too short: %d characters, at least %d needed.", n, acquire.MinManualLength))
				return
			}
			r.showBook(b)
		}, r.win)
	d.Resize(fyne.NewSize(640, 480))
	d.Show()
}

func (r *reader) pasteClipboard() {
	text, err := clipboard.ReadAll()
	if err != nil {
		dialog.ShowError(err, r.win)
		return
	}
	r.askManual(target{}, text, "Review the pasted text.")
}

func (r *reader) askOpen() {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("Project Gutenberg id, URL or file")
	dialog.ShowForm("Open book", "Open", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Book", entry)},
		func(ok bool) {
			if locator := strings.TrimSpace(entry.Text); ok && locator != "" {
				r.open(locator)
			}
		}, r.win)
}

func (r *reader) showBook(b *book) {
	if r.book != nil {
		r.app.savePosition(r.book, r.topBlock())
	}
	r.book = b
	r.title.SetText(b.title)
	parts := []string{}
	for _, s := range []string{b.subtitle, b.authors} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	r.byline.SetText(strings.Join(parts, " · "))

	r.labels = r.labels[:0]
	objects := make([]fyne.CanvasObject, 0, b.doc.Len())
	for _, blk := range b.doc.Blocks {
		l := widget.NewLabel(blk.Text)
		l.Wrapping = fyne.TextWrapWord
		switch blk.Kind {
		case document.HeadingMajor:
			l.TextStyle.Bold = true
			l.Alignment = fyne.TextAlignCenter
		case document.HeadingMinor:
			l.TextStyle.Bold = true
		}
		r.labels = append(r.labels, l)
		objects = append(objects, l)
	}
	r.blocks.Objects = objects
	r.blocks.Refresh()
	r.contents = document.Contents(b.doc)
	r.tocList.UnselectAll()
	r.tocList.Refresh()
	r.scroll.Refresh()

	r.tracker = view.NewTracker(nil)
	r.measure()
	offset := float32(0)
	if blk := r.app.restoreBlock(b); blk > 0 && blk < len(r.labels) {
		offset = r.labels[blk].Position().Y
		r.status.SetText("Resumed where you left off")
	}
	r.scroll.Offset = fyne.NewPos(0, offset)
	r.scroll.Refresh()
	r.syncWindow()
	r.dispatch(r.orch.Reset(r.tracker))
	r.refreshIllustration()
}

// measure records the pixel extent of every block label.
func (r *reader) measure() {
	if r.book == nil {
		return
	}
	placements := make([]view.Placement, len(r.labels))
	for i, l := range r.labels {
		top := l.Position().Y
		placements[i] = view.Placement{
			Text:   r.book.doc.Blocks[i].Text,
			Extent: view.Extent{Top: float64(top), Bottom: float64(top + l.Size().Height)},
		}
	}
	r.tracker.SetPlacements(placements)
	r.contentSize = r.blocks.Size()
	r.viewSize = r.scroll.Size()
}

func (r *reader) syncWindow() {
	r.tracker.SetWindow(float64(r.scroll.Offset.Y), float64(r.scroll.Size().Height))
}

// checkGeometry re-measures after the window or the wrapped text changed size.
func (r *reader) checkGeometry() {
	if r.book == nil {
		return
	}
	if r.blocks.Size() == r.contentSize && r.scroll.Size() == r.viewSize {
		return
	}
	r.measure()
	r.syncWindow()
	r.dispatch(r.orch.Observe())
}

func (r *reader) topBlock() int {
	y := r.scroll.Offset.Y
	for i, l := range r.labels {
		if l.Position().Y+l.Size().Height > y {
			return i
		}
	}
	return 0
}

func (r *reader) toggleContents() {
	if r.toc.Visible() {
		r.toc.Hide()
	} else if len(r.contents) > 0 {
		r.toc.Show()
	}
}

func (r *reader) jumpTo(block int) {
	if block < len(r.labels) {
		r.scrollTo(r.labels[block].Position().Y)
	}
}

func (r *reader) scrollBy(dy float32) {
	r.scrollTo(r.scroll.Offset.Y + dy)
}

func (r *reader) scrollTo(y float32) {
	maxY := max(0, r.blocks.Size().Height-r.scroll.Size().Height)
	y = min(max(0, y), maxY)
	if y == r.scroll.Offset.Y {
		return
	}
	r.scroll.Offset = fyne.NewPos(0, y)
	r.scroll.Refresh()
	r.syncWindow()
	r.dispatch(r.orch.Scrolled())
}

func main() {
	opts, a, done := run("limn-gui", "Limn - Illustrated Reader", os.Args[1:], os.Stdout)
	if done {
		return
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fa := fyneapp.New()
	w := fa.NewWindow("limn - Illustrated Reader")
	r := newReader(ctx, a, w)
	w.SetContent(r.content())
	w.Resize(fyne.NewSize(1100, 760))

	quit := func() {
		if r.book != nil {
			r.app.savePosition(r.book, r.topBlock())
		}
		cancel()
	}

	w.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		page := r.scroll.Size().Height * 0.9
		switch key.Name {
		case fyne.KeyPageDown, fyne.KeySpace:
			r.scrollBy(page)
		case fyne.KeyPageUp:
			r.scrollBy(-page)
		case fyne.KeyDown:
			r.scrollBy(40)
		case fyne.KeyUp:
			r.scrollBy(-40)
		case fyne.KeyQ:
			quit()
			fa.Quit()
		}
	})
	w.Canvas().SetOnTypedRune(func(ch rune) {
		switch ch {
		case 'o', 'O':
			r.askOpen()
		case 't', 'T':
			r.toggleContents()
		}
	})
	w.SetOnClosed(quit)

	// Wrapped label heights settle after layout, so geometry is polled.
	go func() {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fyne.Do(r.checkGeometry)
			}
		}
	}()

	r.open(opts.locator)
	w.ShowAndRun()
}
