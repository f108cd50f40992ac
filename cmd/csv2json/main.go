// csv2json converts dialogue CSV exports into the static JSON files
// the comment endpoints serve.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"refractor/internal/csvconv"
)

var opts csvconv.Options

var rootCmd = &cobra.Command{
	Use:   "csv2json <csv-file-or-directory>",
	Short: "Convert CSV files to JSON",
	Long: `Convert a CSV file, or every CSV file in a directory, to JSON.

The first row is always treated as headers and excluded from the
output. Quoted cells stay strings, unquoted numerics become numbers.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := args[0]

		info, err := os.Stat(inputPath)
		if err != nil {
			return fmt.Errorf("path not found: %s", inputPath)
		}

		if info.IsDir() {
			if opts.OutputPath != "" {
				fmt.Println("⚠️  Warning: --output option is ignored when processing directories")
				opts.OutputPath = ""
			}
			return convertDirectory(inputPath)
		}

		if opts.Recursive {
			fmt.Println("⚠️  Warning: --recursive option is ignored when processing single files")
		}
		result, err := csvconv.ConvertFile(inputPath, opts)
		if err != nil {
			return err
		}
		printResult(result)
		return nil
	},
}

func convertDirectory(dirPath string) error {
	fmt.Printf("🔍 Scanning directory: %s\n", dirPath)
	if opts.Recursive {
		fmt.Println("   Recursive: Yes")
	} else {
		fmt.Println("   Recursive: No")
	}

	csvFiles, err := csvconv.FindCSVFiles(dirPath, opts.Recursive)
	if err != nil {
		return err
	}
	if len(csvFiles) == 0 {
		fmt.Printf("⚠️  No CSV files found in directory: %s\n", dirPath)
		return nil
	}

	fmt.Printf("📁 Found %d CSV file(s):\n", len(csvFiles))
	for i, file := range csvFiles {
		rel, err := filepath.Rel(dirPath, file)
		if err != nil {
			rel = file
		}
		fmt.Printf("   %d. %s\n", i+1, rel)
	}
	fmt.Println()

	successCount := 0
	errorCount := 0
	for i, csvFile := range csvFiles {
		fmt.Printf("📄 Processing (%d/%d): %s\n", i+1, len(csvFiles), filepath.Base(csvFile))
		result, err := csvconv.ConvertFile(csvFile, opts)
		if err != nil {
			fmt.Printf("❌ Error processing %s: %v\n", filepath.Base(csvFile), err)
			errorCount++
		} else {
			printResult(result)
			successCount++
		}
		if i < len(csvFiles)-1 {
			fmt.Println()
		}
	}

	fmt.Println("\n📊 Processing Summary:")
	fmt.Printf("   ✅ Successfully processed: %d files\n", successCount)
	if errorCount > 0 {
		fmt.Printf("   ❌ Failed to process: %d files\n", errorCount)
	}
	fmt.Printf("   📁 Total files: %d\n", len(csvFiles))
	return nil
}

func printResult(r csvconv.Result) {
	fmt.Println("✅ Successfully converted CSV to JSON:")
	fmt.Printf("   Input:  %s\n", r.InputPath)
	fmt.Printf("   Output: %s\n", r.OutputPath)
	fmt.Printf("   Records: %d\n", r.Records)
}

func main() {
	rootCmd.Flags().StringVar(&opts.Delimiter, "delimiter", ",", "CSV delimiter")
	rootCmd.Flags().StringVar(&opts.OutputPath, "output", "", "Output JSON file path (single files only)")
	rootCmd.Flags().BoolVar(&opts.Recursive, "recursive", false, "Process subdirectories recursively")

	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
}
