package kv

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	putCmd = &cobra.Command{
		Use:   "put [key] [value] [timeoutMs]",
		Short: "Sets the value for a key, it expires after timeoutMs milliseconds",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			timeoutMs, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("timeoutMs must be a number: %w", err)
			}
			if err := remoteMap.Put(key, []byte(value), time.Duration(timeoutMs)*time.Millisecond); err != nil {
				return err
			}
			fmt.Println("put successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			resp, ok, err := remoteMap.Get(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%v, resp=%s\n", key, ok, resp)
			return nil
		},
	}
	rmCmd = &cobra.Command{
		Use:     "rm [key]",
		Aliases: []string{"remove"},
		Short:   "Removes a key value pair",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			removed, err := remoteMap.Remove(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, removed=%t\n", key, removed)
			return nil
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Checks if a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			found, err := remoteMap.Has(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%t\n", key, found)
			return nil
		},
	}
	ttlCmd = &cobra.Command{
		Use:   "ttl [key]",
		Short: "Prints the remaining lifetime of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			remaining, found, err := remoteMap.TTL(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%t, ttl=%s\n", key, found, remaining)
			return nil
		},
	}
	sizeCmd = &cobra.Command{
		Use:   "size",
		Short: "Prints the number of entries in the map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := remoteMap.Size()
			if err != nil {
				return err
			}
			fmt.Printf("size=%d\n", size)
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints statistics about the map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := remoteMap.Info()
			if err != nil {
				return err
			}
			fmt.Println(info.String())
			return nil
		},
	}
)
