/*
 * history.go, part of janus.
 *
 * Copyright 2024 The janus authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package main

import (
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/zhenglz/janus"
	"github.com/zhenglz/janus/history"
)

var (
	historySession string
	historyJSON    bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the stored step results",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored steps",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [session] [run]",
	Short: "Show one stored step, forces included",
	Args:  cobra.ExactArgs(2),
	RunE:  runHistoryShow,
}

func init() {
	historyListCmd.Flags().StringVar(&historySession, "session", "", "list only this session")
	historyShowCmd.Flags().BoolVar(&historyJSON, "json", false, "output the record as JSON")
	historyCmd.AddCommand(historyListCmd, historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (history.Store, error) {
	if !cfg.HistoryEnabled() {
		return nil, janus.NewError(janus.ErrConfiguration, "history", "no history store configured")
	}
	return history.Open(cfg.History.Format, cfg.History.Path)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()
	recs, err := store.List(cmd.Context(), historySession)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		cmd.Println("No steps stored.")
		return nil
	}
	for _, r := range recs {
		cmd.Printf("%s %5d %-8s %18.8f %3d buffer groups %4d partitions %s\n",
			r.Session, r.RunID, r.Scheme, r.Energy, len(r.BufferGroups), len(r.Partitions), r.Time.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	run, err := strconv.Atoi(args[1])
	if err != nil {
		return janus.NewError(janus.ErrConfiguration, "history show", "run must be an integer")
	}
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()
	r, err := store.Load(cmd.Context(), args[0], run)
	if err != nil {
		return err
	}
	if historyJSON {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}
	cmd.Printf("session %s run %d scheme %s energy %.8f kcal/mol\n", r.Session, r.RunID, r.Scheme, r.Energy)
	for _, g := range r.BufferGroups {
		cmd.Printf("  buffer group %4d %s %s%d r %.4f s %.6f\n", g.ID, g.Chain, g.MolName, g.MolID, g.R, g.S)
	}
	for _, p := range r.Partitions {
		cmd.Printf("  partition %3d groups %v weight %.6f energy %.8f\n", p.ID, p.Groups, p.Weight, p.Energy)
	}
	for _, a := range r.Atoms() {
		f := r.Forces[a]
		cmd.Printf("%6d %16.8f %16.8f %16.8f\n", a, f[0], f[1], f[2])
	}
	return nil
}
