package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	batchdto "github.com/fekuna/omnipos-uniform-service/internal/batch/dto"
	batchH "github.com/fekuna/omnipos-uniform-service/internal/batch/handler"
	"github.com/fekuna/omnipos-uniform-service/internal/model"
	schooldto "github.com/fekuna/omnipos-uniform-service/internal/school/dto"
	schoolH "github.com/fekuna/omnipos-uniform-service/internal/school/handler"
	"github.com/fekuna/omnipos-uniform-service/pkg/rpc"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// dialFunc opens a connection to the uniform service. The returned func closes it.
type dialFunc func(addr string) (grpc.ClientConnInterface, func() error, error)

func dialInsecure(addr string) (grpc.ClientConnInterface, func() error, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, err
	}
	return conn, conn.Close, nil
}

type client struct {
	dial    dialFunc
	addr    string
	userID  string
	timeout time.Duration
}

// call invokes one service method and prints the response as indented json.
func (c *client) call(cmd *cobra.Command, service, method string, req, resp interface{}) error {
	conn, closeConn, err := c.dial(c.addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.addr, err)
	}
	defer closeConn()

	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	defer cancel()
	if c.userID != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "x-user-id", c.userID)
	}

	if err := rpc.Invoke(ctx, conn, service, method, req, resp); err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd(dial dialFunc) *cobra.Command {
	if dial == nil {
		dial = dialInsecure
	}
	c := &client{dial: dial}

	addr := os.Getenv("UNIFORM_ADDR")
	if addr == "" {
		addr = "localhost:8083"
	}

	root := &cobra.Command{
		Use:           "uniformctl",
		Short:         "Inspect and allocate school uniform stock",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&c.addr, "addr", addr, "uniform service gRPC address")
	root.PersistentFlags().StringVar(&c.userID, "user", os.Getenv("UNIFORM_USER"), "user id sent as x-user-id")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 10*time.Second, "per call timeout")

	root.AddCommand(
		newCatalogCmd(c),
		newAvailableCmd(c),
		newAllocateCmd(c),
		newBatchesCmd(c),
		newSummaryCmd(c),
		newSchoolSummaryCmd(c),
	)
	return root
}

func newCatalogCmd(c *client) *cobra.Command {
	req := &batchdto.CatalogRequest{}
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List uniform types, or the variants, colors and sizes under one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.call(cmd, batchH.ServiceName, "GetCatalog", req, &batchdto.CatalogResponse{})
		},
	}
	cmd.Flags().StringVar(&req.Type, "type", "", "uniform type")
	cmd.Flags().StringVar(&req.VariantType, "variant", "", "variant type")
	cmd.Flags().StringVar(&req.Color, "color", "", "color")
	cmd.Flags().BoolVar(&req.ForceRefresh, "refresh", false, "reload batches from the store")
	return cmd
}

func newAvailableCmd(c *client) *cobra.Command {
	req := &batchdto.AvailableQuantityRequest{}
	cmd := &cobra.Command{
		Use:   "available TYPE VARIANT COLOR SIZE",
		Short: "Show the available quantity for one stock key",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Type, req.VariantType, req.Color, req.Size = args[0], args[1], args[2], args[3]
			return c.call(cmd, batchH.ServiceName, "GetAvailableQuantity", req, &batchdto.AvailableQuantityResponse{})
		},
	}
	cmd.Flags().BoolVar(&req.ForceRefresh, "refresh", false, "reload batches from the store")
	return cmd
}

func newAllocateCmd(c *client) *cobra.Command {
	req := &batchdto.AllocateRequest{}
	cmd := &cobra.Command{
		Use:   "allocate TYPE VARIANT COLOR SIZE",
		Short: "Consume stock for one key, oldest batch first",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Quantity <= 0 {
				return fmt.Errorf("--quantity must be positive")
			}
			req.Type, req.VariantType, req.Color, req.Size = args[0], args[1], args[2], args[3]
			return c.call(cmd, batchH.ServiceName, "Allocate", req, &model.AllocationResult{})
		},
	}
	cmd.Flags().IntVarP(&req.Quantity, "quantity", "q", 0, "quantity to allocate")
	return cmd
}

func newBatchesCmd(c *client) *cobra.Command {
	req := &batchdto.ListBatchesRequest{}
	cmd := &cobra.Command{
		Use:   "batches",
		Short: "List batches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.call(cmd, batchH.ServiceName, "ListBatches", req, &batchdto.ListBatchesResponse{})
		},
	}
	cmd.Flags().StringVar(&req.Type, "type", "", "only batches of this uniform type")
	cmd.Flags().StringVar(&req.Status, "status", "", "only batches with this status")
	cmd.Flags().BoolVar(&req.ForceRefresh, "refresh", false, "reload batches from the store")
	return cmd
}

func newSummaryCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show batch totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.call(cmd, batchH.ServiceName, "GetSummary", &batchdto.Empty{}, &batchdto.BatchSummary{})
		},
	}
}

func newSchoolSummaryCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "school-summary SCHOOL_ID",
		Short: "Show requirement and fulfillment counts for a school",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, schoolH.ServiceName, "GetSummary", &schooldto.SchoolIDRequest{ID: args[0]}, &schooldto.SchoolSummary{})
		},
	}
}
