// Package commands defines the lensdist CLI.
//
// Commands
//
//   - plots        Write distance heatmaps, distortion curves and sip.yaml
//   - sip          Print the SIP coefficients of a lens as YAML
//   - curve        Print the sampled distortion curve as a table
//   - init-config  Write the default configuration file
//
// The root command loads the configuration and the lens database before any
// subcommand runs; flags given on the command line override the file.
package commands
