package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/dewrangle/cmd/dewrangle/internal/commands"
	"github.com/wolfeidau/dewrangle/internal/logger"
	"github.com/wolfeidau/dewrangle/internal/telemetry"
)

var (
	version = "dev"
	cli     struct {
		commands.Globals

		AddVolume     commands.AddVolumeCmd     `cmd:"" help:"Add a bucket to a study as a volume and hash it"`
		HashVolume    commands.HashVolumeCmd    `cmd:"" help:"List and hash an existing volume"`
		ListVolume    commands.ListVolumeCmd    `cmd:"" help:"List an existing volume without hashing"`
		HashBatch     commands.HashBatchCmd     `cmd:"" help:"Add and hash every volume in a CSV file"`
		DeleteVolume  commands.DeleteVolumeCmd  `cmd:"" help:"Remove a volume from a study"`
		CreateStudy   commands.CreateStudyCmd   `cmd:"" help:"Create a study in an organization"`
		Study         commands.StudyCmd         `cmd:"" help:"Show study ids and link"`
		Volumes       commands.VolumesCmd       `cmd:"" help:"List the volumes of a study"`
		Credentials   commands.CredentialsCmd   `cmd:"" help:"List the credentials of a study"`
		BillingGroups commands.BillingGroupsCmd `cmd:"" help:"List the billing groups of a study's organization"`
		FindVolume    commands.FindVolumeCmd    `cmd:"" help:"Find the studies volumes are loaded into"`
		Jobs          commands.JobsCmd          `cmd:"" help:"List the jobs of a volume"`
		JobStatus     commands.JobStatusCmd     `cmd:"" help:"Show the status of a job"`
		Download      commands.DownloadCmd      `cmd:"" help:"Download the result of a completed job"`
		Profile       commands.ProfileCmd       `cmd:"" help:"Manage API key profiles"`
		Version       commands.VersionCmd       `cmd:"" help:"Print the version"`
	}
)

func main() {
	os.Exit(run())
}

func run() int {
	cmd := kong.Parse(&cli,
		kong.Name("dewrangle"),
		kong.Description("Manage Dewrangle volumes, hashing jobs and results."),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		})

	log.Logger = logger.Setup(cli.Debug)
	ctx := log.Logger.WithContext(context.Background())

	if telemetry.Enabled() {
		shutdown, err := telemetry.InitTelemetry(ctx, "dewrangle", version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Failed to shutdown telemetry")
				}
			}()
		}
	}

	cmd.BindTo(ctx, (*context.Context)(nil))
	cli.Globals.Version = version

	if err := cmd.Run(&cli.Globals); err != nil {
		fmt.Fprintf(os.Stderr, "%s: error: %v\n", cmd.Model.Name, err)
		return commands.ExitCode(err)
	}

	return commands.ExitOK
}
