// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)
	viper.SetDefault("datadir", "input")

	viper.SetDefault("output.dir", "output")
	viper.SetDefault("output.logfile", "")
	viper.SetDefault("output.sqlite.enabled", false)
	viper.SetDefault("output.sqlite.path", "phonolab.db")

	viper.SetDefault("experiment.id", "")
	viper.SetDefault("experiment.datasource", "HSS")
	viper.SetDefault("experiment.dataloadertype", "normal")
	viper.SetDefault("experiment.gradcam", false)
	viper.SetDefault("experiment.tasktype", "classify")
	viper.SetDefault("experiment.transform", "logmel")
	viper.SetDefault("experiment.batchsize", 32)
	viper.SetDefault("experiment.epochs", 100)
	viper.SetDefault("experiment.nfolds", 5)
	viper.SetDefault("experiment.trainpath", "")
	viper.SetDefault("experiment.valpath", "")
	viper.SetDefault("experiment.testpath", "")
	viper.SetDefault("experiment.manifestpath", "")
	viper.SetDefault("experiment.exportsummary", false)
}
