package main

import (
	"github.com/spf13/cobra"
)

// Flag accessors for flags this package registered itself; lookup errors
// are programming mistakes, not runtime conditions.

func mustString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(err)
	}
	return v
}

func mustBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(err)
	}
	return v
}

func mustInt(cmd *cobra.Command, name string) int {
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(err)
	}
	return v
}

func mustFloat(cmd *cobra.Command, name string) float64 {
	v, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		panic(err)
	}
	return v
}
