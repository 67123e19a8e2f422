package main

import (
	"fmt"
	"strings"

	"deej-manager/apps"
	"deej-manager/config"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// showAddDialog lets the user pick applications and system targets for a slider.
// The application list is fetched fresh every time.
func (ui *AppUI) showAddDialog(slider int) {
	names := apps.ListOrEmpty(ui.ctx.apps, ui.ctx.logger)

	appGroup := widget.NewCheckGroup(names, nil)
	var appContent fyne.CanvasObject = container.NewVScroll(appGroup)
	if len(names) == 0 {
		appContent = widget.NewLabel("No applications found")
	}

	systemGroup := widget.NewCheckGroup(config.SpecialDisplayNames(), nil)

	customEntry := widget.NewEntry()
	customEntry.SetPlaceHolder("e.g. game.exe")

	content := container.NewBorder(nil,
		widget.NewForm(widget.NewFormItem("Other process", customEntry)),
		nil, nil,
		container.NewGridWithColumns(2,
			widget.NewCard("Applications", "", appContent),
			widget.NewCard("System", "", systemGroup),
		),
	)

	d := dialog.NewCustomConfirm(fmt.Sprintf("Add to slider %d", slider+1), "Add", "Cancel", content,
		func(confirmed bool) {
			if !confirmed {
				return
			}
			selected := append([]string{}, appGroup.Selected...)
			if custom := strings.TrimSpace(customEntry.Text); custom != "" {
				selected = append(selected, custom)
			}
			ui.addTargets(slider, config.SelectionTargets(selected, systemGroup.Selected))
		}, ui.window)
	d.Resize(fyne.NewSize(560, 420))
	d.Show()
}
