package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gophertribe/devtool/build"
)

const (
	binary        = "dist/colorboard"
	mainPackage   = "./cmd/colorboard"
	configPackage = "github.com/mklimuk/colorboard/pkg/config"
)

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the colorboard cli",
		Long: `Build the colorboard cli. Native builds use the local toolchain; builds
for another platform run inside a docker image with the cgo cross toolchains
needed by the USB adapter (e.g. --os linux --arch arm for a NanoPi).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			targetOS, _ := flags.GetString("os")
			arch, _ := flags.GetString("arch")
			version, _ := flags.GetString("version")
			crossOS, _ := flags.GetString("cross-os")
			crossArch, _ := flags.GetString("cross-arch")
			image, _ := flags.GetString("image")

			if targetOS == runtime.GOOS && arch == runtime.GOARCH {
				// inside the build container the target comes in cross-os/cross-arch
				if crossOS != "" && crossArch != "" {
					targetOS = crossOS
					arch = crossArch
				}
				return build.GoBuild(binary, mainPackage, build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: configPackage,
					// karalabe/hid needs cgo for the MCP2221 adapter
					EnableCgo: true,
					Arch:      arch,
					OS:        targetOS,
				})
			}

			noCache, err := flags.GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", targetOS, arch),
				[]string{"build", "--version", version, "--cross-os", targetOS, "--cross-arch", arch},
				build.DockerBuildOpts{
					NoCache: noCache,
					Image:   image,
				})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building the app")
	cmd.Flags().String("version", "latest", "version of the cli")
	cmd.Flags().String("os", runtime.GOOS, "os to build for")
	cmd.Flags().String("arch", runtime.GOARCH, "arch to build for")
	cmd.Flags().String("cross-os", "", "os to cross-compile for")
	cmd.Flags().String("cross-arch", "", "arch to cross-compile for")
	cmd.Flags().String("image", "gophertribe/gobuild:1.25-bookworm", "docker image for cross builds")
	return cmd
}
