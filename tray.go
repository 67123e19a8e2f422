package main

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
)

// setupTray keeps the manager running in the system tray when the window is
// closed. Without tray support closing the window quits.
func (ui *AppUI) setupTray() {
	desk, ok := ui.app.(desktop.App)
	if !ok {
		return
	}
	desk.SetSystemTrayIcon(theme.VolumeUpIcon())
	// fyne appends its own Quit item.
	desk.SetSystemTrayMenu(fyne.NewMenu("Mixer",
		fyne.NewMenuItem("Show", func() {
			ui.window.Show()
			ui.window.RequestFocus()
		}),
	))

	ui.window.SetCloseIntercept(func() {
		ui.window.Hide()
		ui.app.SendNotification(fyne.NewNotification(
			"Running in the background",
			"The mixer manager is still running. To exit, choose Quit from the tray menu.",
		))
	})
}
