package main

const version = "pixelate 1.0.0"

const detailedHelp = `Usage: pixelate [options] <image> <square-size> <S|M>

Replaces every square of <square-size> pixels with its average color and
shows the image while it is being processed.

Arguments:
  image         input file (png, jpeg, gif, bmp, tiff, webp)
  square-size   side of a square in pixels, greater than zero
  S|M           S processes squares one by one on a single goroutine,
                M splits the image into one band of squares per worker
                and processes the bands in parallel

Options:
  -o, --output=FILE     result file, format from extension (default result.jpg)
  -w, --workers=N       workers for mode M (default: number of CPUs)
      --pause=DURATION  delay after each square (default 10ms)
      --rows            cut bands along rows instead of columns
      --headless        do not open a window
      --record=FILE     stream every processed square to a zstd file
      --max-width=N     shrink the input to at most N pixels wide
      --max-height=N    shrink the input to at most N pixels high
                        (both default to the screen size, none when headless)
  -v, --verbose         debug logging
      --version         print the version and exit
  -h, --help            show this help

Algorithm:
  The image is tiled into squares starting at the top-left corner; squares
  on the right and bottom edges are cut to the image size. Each square is
  replaced by the integer mean of its red, green and blue channels (the
  fraction is dropped). In mode M the squares are divided by column into
  equal bands, the last band taking the remainder, so no two workers ever
  touch the same pixel.
`
