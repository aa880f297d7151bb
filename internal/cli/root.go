// Package cli implements the hcl2cdk CLI commands.
package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	// Import schema cache backends to register them via init()
	_ "github.com/architect-io/hcl2cdk/pkg/provider/cache/azurerm"
	_ "github.com/architect-io/hcl2cdk/pkg/provider/cache/gcs"
	_ "github.com/architect-io/hcl2cdk/pkg/provider/cache/local"
	_ "github.com/architect-io/hcl2cdk/pkg/provider/cache/s3"
)

var (
	cfgFile string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hcl2cdk",
	Short: "Convert Terraform HCL to CDK for Terraform programs",
	Long: `hcl2cdk converts Terraform HCL configurations into CDK for Terraform
programs in TypeScript, Python, Java, C#, or Go.

Declarations are emitted in dependency order, cross-resource references
become construct property accesses, and provider schemas drive attribute
name and type resolution.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.hcl2cdk/config.yaml)")
	rootCmd.PersistentFlags().String("schema-cache", "", "Schema cache backend type (local, s3, gcs, azurerm)")
	rootCmd.PersistentFlags().StringArray("schema-cache-config", nil, "Schema cache backend configuration (key=value)")

	// Bind to viper
	_ = viper.BindPFlag("schema-cache", rootCmd.PersistentFlags().Lookup("schema-cache"))
	_ = viper.BindPFlag("schema-cache-config", rootCmd.PersistentFlags().Lookup("schema-cache-config"))
	viper.SetEnvPrefix("HCL2CDK")
	viper.AutomaticEnv()

	// Add subcommands
	rootCmd.AddCommand(newConvertCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in home directory
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home + "/.hcl2cdk")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	// Read config file if it exists
	_ = viper.ReadInConfig()
}
