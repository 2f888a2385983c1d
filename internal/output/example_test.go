package output_test

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/appsize/internal/inventory"
	"github.com/blackwell-systems/appsize/internal/output"
)

// Example showing how to render the installed app table
func ExampleRenderAppTable() {
	apps := []inventory.AppRecord{
		{
			AppName:     "Beat Saber",
			PackageName: "com.beatgames.beatsaber",
			Source:      inventory.SourceMetaStore,
			TotalBytes:  1 << 30,
		},
		{
			AppName:     "Moon Rider",
			PackageName: "com.supermedium.moonrider",
			Source:      inventory.SourceSideloaded,
			TotalBytes:  130 << 20,
		},
	}

	fmt.Println(output.RenderAppTable(apps, output.SortBySize))
	fmt.Println(output.RenderSourceSummary(apps))
}

// Example showing how to use a progress bar
func ExampleProgressBar() {
	progress := output.NewProgress(4, "Running checks")

	for done := 1; done <= 4; done++ {
		progress.SetCurrent(done)
	}

	progress.Finish()
}

// Example showing how to use a spinner
func ExampleSpinner() {
	spinner := output.NewSpinner("Reading installed apps")
	spinner.Start()

	time.Sleep(2 * time.Second)

	spinner.Stop()
	fmt.Println("Done!")
}
