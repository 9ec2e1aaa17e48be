package kv

import (
	"fmt"
	"os"

	"github.com/driftkv/driftkv/dispatch"
	"github.com/spf13/cobra"
)

var (
	putCmd = &cobra.Command{
		Use:   "put [key] [value]",
		Short: "Stores a last-writer-wins value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			if err := kvClient.PutLWW(key, []byte(value)); err != nil {
				return err
			}
			fmt.Println("put successfully")
			return nil
		},
	}

	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Fetches the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value, err := kvClient.GetLWW(key)
			if err != nil {
				if dispatch.CodeOf(err) == dispatch.RetCNotFound {
					fmt.Println("key not found")
					os.Exit(1)
				}
				return err
			}
			fmt.Println(string(value))
			return nil
		},
	}
)
