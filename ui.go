package main

import (
	"context"
	"fmt"

	"deej-manager/apps"
	"deej-manager/config"
	"deej-manager/device"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// AppUI holds all UI state and widgets. Everything here is touched only on
// the fyne goroutine.
type AppUI struct {
	app    fyne.App
	window fyne.Window
	ctx    *appContext

	// Widgets
	lists       [config.SliderCount]*widget.List
	invertChk   *widget.Check
	saveBtn     *widget.Button
	loadBtn     *widget.Button
	refreshBtn  *widget.Button
	deviceLabel *widget.Label
	workerLabel *widget.Label
	appsLabel   *widget.Label

	// State
	mapping config.SliderMapping
}

func runGUI(parent context.Context, a *appContext) {
	ctx, cancel := context.WithCancel(parent)
	defer shutdown(cancel, a)

	fa := app.NewWithID("com.github.deej.manager")
	fa.SetIcon(theme.VolumeUpIcon())
	w := fa.NewWindow("Mixer")
	w.Resize(fyne.NewSize(900, 480))

	ui := NewAppUI(fa, w, a)
	ui.load(false)
	ui.setupTray()

	a.workerExited = func(pid, code int) {
		fyne.Do(func() { ui.onWorkerExited(pid, code) })
	}

	go a.watcher.Run(ctx)
	go func() {
		for ev := range a.watcher.Events() {
			fyne.Do(func() { ui.onDeviceEvent(ev) })
		}
	}()
	go func() {
		if err := a.store.Watch(ctx, func() {
			fyne.Do(ui.confirmReload)
		}); err != nil {
			a.logger.Warn().Err(err).Msg("config watch disabled")
		}
	}()

	w.ShowAndRun()
}

func NewAppUI(fa fyne.App, window fyne.Window, a *appContext) *AppUI {
	ui := &AppUI{
		app:     fa,
		window:  window,
		ctx:     a,
		mapping: config.NewSliderMapping(),
	}
	ui.build()
	return ui
}

func (ui *AppUI) build() {
	columns := make([]fyne.CanvasObject, 0, config.SliderCount)
	for i := 0; i < config.SliderCount; i++ {
		columns = append(columns, ui.buildSlider(i))
	}

	ui.invertChk = widget.NewCheck("Invert sliders", nil)

	ui.saveBtn = widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), func() {
		ui.save()
	})
	ui.loadBtn = widget.NewButtonWithIcon("Load", theme.FolderOpenIcon(), func() {
		ui.load(true)
	})
	ui.refreshBtn = widget.NewButtonWithIcon("Refresh", theme.ViewRefreshIcon(), func() {
		ui.refreshApplications()
	})

	ui.deviceLabel = widget.NewLabel("Device: searching...")
	ui.workerLabel = widget.NewLabel("deej: stopped")
	ui.appsLabel = widget.NewLabel("")

	fixed := widget.NewLabel(fmt.Sprintf("Baud rate: %d    Noise reduction: %s",
		config.DefaultBaudRate, config.DefaultNoiseReduction))

	optionsRow := container.NewHBox(
		ui.invertChk,
		fixed,
		layout.NewSpacer(),
		ui.refreshBtn,
		ui.loadBtn,
		ui.saveBtn,
	)
	statusRow := container.NewHBox(ui.deviceLabel, ui.workerLabel, layout.NewSpacer(), ui.appsLabel)

	content := container.NewBorder(nil, container.NewVBox(optionsRow, statusRow), nil, nil,
		container.NewGridWithColumns(config.SliderCount, columns...))
	ui.window.SetContent(content)
}

func (ui *AppUI) buildSlider(slider int) fyne.CanvasObject {
	list := widget.NewList(
		func() int {
			return len(ui.mapping[slider])
		},
		func() fyne.CanvasObject {
			remove := widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)
			return container.NewBorder(nil, nil, nil, remove, widget.NewLabel(""))
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			targets := ui.mapping[slider]
			if id >= len(targets) {
				return
			}
			target := targets[id]
			c := obj.(*fyne.Container)
			c.Objects[0].(*widget.Label).SetText(config.DisplayName(target))
			c.Objects[1].(*widget.Button).OnTapped = func() {
				ui.removeTarget(slider, target)
			}
		},
	)
	ui.lists[slider] = list

	add := widget.NewButtonWithIcon("Add", theme.ContentAddIcon(), func() {
		ui.showAddDialog(slider)
	})
	return widget.NewCard(fmt.Sprintf("Slider %d", slider+1), "",
		container.NewBorder(nil, add, nil, nil, list))
}

func (ui *AppUI) refreshLists() {
	for _, l := range ui.lists {
		l.Refresh()
	}
}

func (ui *AppUI) addTargets(slider int, targets []string) {
	if err := ui.mapping.Add(slider, targets...); err != nil {
		dialog.ShowError(err, ui.window)
		return
	}
	ui.lists[slider].Refresh()
}

func (ui *AppUI) removeTarget(slider int, target string) {
	if err := ui.mapping.Remove(slider, target); err != nil {
		dialog.ShowError(err, ui.window)
		return
	}
	ui.lists[slider].UnselectAll()
	ui.lists[slider].Refresh()
}

// document builds what Save writes from the current widgets.
func (ui *AppUI) document() *config.Document {
	return &config.Document{
		SliderMapping:  ui.mapping.Clone(),
		InvertSliders:  ui.invertChk.Checked,
		BaudRate:       config.DefaultBaudRate,
		NoiseReduction: config.DefaultNoiseReduction,
		COMPort:        ui.ctx.devicePath,
	}
}

func (ui *AppUI) save() {
	if err := ui.ctx.store.Save(ui.document()); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save configuration: %w", err), ui.window)
		return
	}
	dialog.ShowInformation("Saved", "Configuration saved successfully!", ui.window)
}

// load replaces the mapping with the file's. On error the current state is kept.
func (ui *AppUI) load(notify bool) {
	doc, err := ui.ctx.store.Load()
	if err != nil {
		dialog.ShowError(fmt.Errorf("failed to load configuration: %w", err), ui.window)
		return
	}
	ui.mapping = doc.SliderMapping
	ui.invertChk.SetChecked(doc.InvertSliders)
	ui.refreshLists()
	if notify {
		dialog.ShowInformation("Loaded", "Configuration loaded from "+ui.ctx.store.Path(), ui.window)
	}
}

func (ui *AppUI) confirmReload() {
	dialog.ShowConfirm("Configuration changed",
		"config.yaml was changed outside the manager. Reload it and discard unsaved edits?",
		func(ok bool) {
			if ok {
				ui.load(false)
			}
		}, ui.window)
}

func (ui *AppUI) refreshApplications() {
	names := apps.ListOrEmpty(ui.ctx.apps, ui.ctx.logger)
	ui.appsLabel.SetText(fmt.Sprintf("%d applications playing audio", len(names)))
}

func (ui *AppUI) onDeviceEvent(ev device.Event) {
	errs := ui.ctx.handleEvent(ev)
	switch ev.Kind {
	case device.DevicePresent:
		ui.deviceLabel.SetText("Device: " + ev.Path)
	case device.DeviceAbsent:
		ui.deviceLabel.SetText("Device: not detected")
	}
	ui.updateWorkerLabel()
	for _, err := range errs {
		dialog.ShowError(err, ui.window)
	}
}

func (ui *AppUI) onWorkerExited(pid, code int) {
	ui.workerLabel.SetText(fmt.Sprintf("deej: exited (pid %d, code %d)", pid, code))
}

func (ui *AppUI) updateWorkerLabel() {
	if pid := ui.ctx.supervisor.PID(); pid != 0 {
		ui.workerLabel.SetText(fmt.Sprintf("deej: running (pid %d)", pid))
		return
	}
	ui.workerLabel.SetText("deej: stopped")
}
