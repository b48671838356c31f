package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-melody/internal/equalizer"
	"github.com/hazadus/go-melody/internal/utils"
)

// createEqCommand создает команду eq с подкомандами
func (app *Application) createEqCommand() *cobra.Command {
	eqCmd := &cobra.Command{
		Use:   "eq",
		Short: "Show and adjust the 10-band equalizer",
		Long:  `Display equalizer band gains or set the gain of a band in decibels. Changes apply to live playback and persist across restarts.`,
		Run: func(_ *cobra.Command, _ []string) {
			app.showEq()
		},
	}

	eqCmd.AddCommand(&cobra.Command{
		Use:   "set [band 0-9] [gain dB]",
		Short: "Set the gain of an equalizer band",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			band, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("неверный номер полосы: %s", args[0])
			}
			gain, err := equalizer.ParseGain(args[1])
			if err != nil {
				return fmt.Errorf("неверное усиление: %w", err)
			}
			if err := app.Controller.SetEqGain(band, gain); err != nil {
				return fmt.Errorf("ошибка установки полосы эквалайзера: %w", err)
			}
			fmt.Printf("✅ Полоса %s: %s\n",
				utils.FormatFrequency(equalizer.Frequencies[band]),
				utils.FormatGain(gain))
			return nil
		},
	})

	eqCmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset all equalizer bands to 0 dB",
		RunE: func(_ *cobra.Command, _ []string) error {
			for band := 0; band < equalizer.NumBands; band++ {
				if err := app.Controller.SetEqGain(band, 0); err != nil {
					return fmt.Errorf("ошибка сброса эквалайзера: %w", err)
				}
			}
			fmt.Println("✅ Эквалайзер сброшен")
			return nil
		},
	})

	return eqCmd
}

func (app *Application) showEq() {
	fmt.Println("🎚️  Эквалайзер:")
	gains := app.Chain.Gains()
	for band, gain := range gains {
		fmt.Printf("   %d. %-7s %s\n",
			band,
			utils.FormatFrequency(equalizer.Frequencies[band]),
			utils.FormatGain(gain))
	}
}
